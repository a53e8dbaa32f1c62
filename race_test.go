// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package memheap_test

// raceEnabled is true when the race detector is active.
// TestNewTitanPool is skipped in race mode to avoid a multi-gigabyte
// allocation under the race detector.
const raceEnabled = true
