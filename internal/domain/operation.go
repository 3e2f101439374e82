package domain

// OperationType enumerates sensitive operations that may require a
// confirmation step before execution.
type OperationType string

const (
	OperationDeletePost        OperationType = "DELETE_POST"
	OperationDeleteComment     OperationType = "DELETE_COMMENT"
	OperationDeleteUser        OperationType = "DELETE_USER"
	OperationDeactivateAccount OperationType = "DEACTIVATE_ACCOUNT"
	OperationChangeRole        OperationType = "CHANGE_ROLE"
	OperationEditConfig        OperationType = "EDIT_CONFIG"
	OperationEditPolicy        OperationType = "EDIT_POLICY"
	OperationExportData        OperationType = "EXPORT_DATA"
)

type operationMeta struct {
	displayName string
	description string
}

var operationDetails = map[OperationType]operationMeta{
	OperationDeletePost:        {"Delete Post", "Permanently remove a post and its attachments"},
	OperationDeleteComment:     {"Delete Comment", "Permanently remove a comment"},
	OperationDeleteUser:        {"Delete User", "Permanently remove a user account and its content"},
	OperationDeactivateAccount: {"Deactivate Account", "Disable an account and terminate its sessions"},
	OperationChangeRole:        {"Change Role", "Change the privilege level of an account"},
	OperationEditConfig:        {"Edit Configuration", "Modify runtime configuration values"},
	OperationEditPolicy:        {"Edit Policy", "Modify moderation or access policies"},
	OperationExportData:        {"Export Data", "Export account data for download"},
}

// DisplayName returns the human-readable name for the operation.
func (o OperationType) DisplayName() string {
	if meta, ok := operationDetails[o]; ok {
		return meta.displayName
	}
	return string(o)
}

// Description returns the human-readable description for the operation.
func (o OperationType) Description() string {
	if meta, ok := operationDetails[o]; ok {
		return meta.description
	}
	return ""
}

// Known reports whether the operation type is a recognized value.
func (o OperationType) Known() bool {
	_, ok := operationDetails[o]
	return ok
}

// Destructive reports whether the operation irreversibly removes data.
func (o OperationType) Destructive() bool {
	switch o {
	case OperationDeletePost, OperationDeleteComment, OperationDeleteUser, OperationDeactivateAccount:
		return true
	}
	return false
}

// PolicyChange reports whether the operation alters roles, configuration or policies.
func (o OperationType) PolicyChange() bool {
	switch o {
	case OperationChangeRole, OperationEditConfig, OperationEditPolicy:
		return true
	}
	return false
}
