// Copyright 2017 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutil provides test helpers shared across the repo.
package testutil

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var defaultCmpOptions = []cmp.Option{
	// Treat a nil slice or map the same as an empty one.
	cmpopts.EquateEmpty(),
}

// Equal compares x and y with go-cmp, treating nil and empty collections
// as equal. Extra options are appended to the defaults.
func Equal(x, y interface{}, opts ...cmp.Option) bool {
	opts = append(opts, defaultCmpOptions...)
	return cmp.Equal(x, y, opts...)
}

// Diff reports the differences between x and y in go-cmp's diff format,
// using the same options as Equal. It returns "" if the values are equal.
func Diff(x, y interface{}, opts ...cmp.Option) string {
	opts = append(opts, defaultCmpOptions...)
	return cmp.Diff(x, y, opts...)
}
