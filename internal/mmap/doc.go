// SPDX-License-Identifier: Apache-2.0

// Package mmap reserves anonymous, process-private, read/write memory regions.
//
// On Unix the region comes from mmap(2) with MAP_ANON|MAP_PRIVATE and is not
// backed by any file or shared with other processes. Other platforms fall back
// to a Go byte slice of the same size.
package mmap
