package syncer

// Exported aliases for testing internal functions from
// the syncer_test package.

// PartitionForTest exposes partition.
var PartitionForTest = partition

// DispatchForTest exposes dispatch.
var DispatchForTest = dispatch

// TransferFunc is an alias for transferFunc.
type TransferFunc = transferFunc
