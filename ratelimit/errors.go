package ratelimit

import "errors"

var (
	errMissingCustomKeyFunc = errors.New("ratelimit: StrategyCustom requires Config.CustomKey")
	errInvalidBucketConfig  = errors.New("ratelimit: BucketConfig.MaxTokens and RefillRate must be positive")
)
