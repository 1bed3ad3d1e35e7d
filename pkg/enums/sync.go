package enums

import "fmt"

// SyncOperation is the action a terminal requests for one entity.
type SyncOperation string

const (
	SyncOperationCreate SyncOperation = "create"
	SyncOperationUpdate SyncOperation = "update"
	SyncOperationDelete SyncOperation = "delete"
)

var validSyncOperations = []SyncOperation{
	SyncOperationCreate,
	SyncOperationUpdate,
	SyncOperationDelete,
}

// String implements fmt.Stringer.
func (s SyncOperation) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncOperation.
func (s SyncOperation) IsValid() bool {
	for _, candidate := range validSyncOperations {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncOperation converts raw input into a SyncOperation.
func ParseSyncOperation(value string) (SyncOperation, error) {
	for _, candidate := range validSyncOperations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync operation %q", value)
}

// SyncStatus is the per-operation outcome reported back to a terminal.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusSkipped SyncStatus = "skipped"
	SyncStatusError   SyncStatus = "error"
)

// String implements fmt.Stringer.
func (s SyncStatus) String() string {
	return string(s)
}
