// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

// LogLevelSetting gates common.ShPrintf output.
var LogLevelSetting LogLevel = INFO | WARN | ERROR | FATAL

const (
	// size of a data page in byte
	PageSize = 4096
	// number of key/value pairs an extendible hash bucket holds before it splits
	DefaultBucketSize = 4
	// K used by the LRU-K replacer when a caller does not request a different one
	DefaultLRUKValue = 2
)
