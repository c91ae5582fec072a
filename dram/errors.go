package dram

import "errors"

// ErrConfig is the sentinel wrapped by every device configuration error:
// unknown presets, inconsistent organization/timing values, or missing
// refresh-derivation table entries. Callers test against it with
// errors.Is, matching the wrapping style used throughout the teacher's
// timing/latency config loader.
var ErrConfig = errors.New("dram: invalid configuration")
