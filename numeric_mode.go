// numeric_mode.go - reports which numeric strategy this binary was
// built with (spec.md §9).
//
// Licensed under the GNU General Public License v3.0 or later.

//go:build !q28

package main

const numericModeName = "float32"
