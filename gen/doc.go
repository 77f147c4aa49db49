// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

// Package gen contains generators for common kinds of formulas, used
// mainly by tests.
package gen
