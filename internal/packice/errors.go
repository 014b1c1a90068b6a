// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package packice

import "errors"

var (
	ErrFormat             = errors.New("not a Pack-Ice stream")
	ErrSize               = errors.New("Pack-Ice size out of bounds")
	ErrIO                 = errors.New("Pack-Ice source read failed")
	ErrMalformed          = errors.New("malformed Pack-Ice stream")
	ErrUnsupportedVariant = errors.New("unsupported Pack-Ice variant")
)
