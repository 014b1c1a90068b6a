package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

var memLimit int = calcMemLimit()

// calcMemLimit bounds the memory spent on outer-layer decompression
// and on cached decoded files.
func calcMemLimit() int {
	n, err := parseMemLimit(os.Getenv("UNICEGB"))
	if err != nil {
		panic(err)
	}
	return n
}

func parseMemLimit(e string) (int, error) {
	if e == "" {
		return 1024 * 1024 * 1024, nil // fall back on 1GiB
	}
	f, err := strconv.ParseFloat(e, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("malformed UNICEGB environment variable, should be a number of gigabytes: %q", e)
	}
	return int(f * 1024 * 1024 * 1024), nil
}
