package bale

// ChatMemberStatus is the role of a member inside a chat.
type ChatMemberStatus string

// Member statuses.
const (
	MemberStatusOwner  ChatMemberStatus = "creator"
	MemberStatusAdmin  ChatMemberStatus = "administrator"
	MemberStatusMember ChatMemberStatus = "member"
	MemberStatusLeft   ChatMemberStatus = "left"
	MemberStatusBanned ChatMemberStatus = "kicked"
)

// IsAdmin reports whether the status grants admin rights.
func (s ChatMemberStatus) IsAdmin() bool {
	return s == MemberStatusOwner || s == MemberStatusAdmin
}

// IsMember reports whether the user is currently inside the chat.
func (s ChatMemberStatus) IsMember() bool {
	return s.IsAdmin() || s == MemberStatusMember
}

// Permissions lists what a member may do. Unset fields are false.
type Permissions struct {
	CanBeEdited          bool `json:"can_be_edited,omitempty"`
	CanChangeInfo        bool `json:"can_change_info,omitempty"`
	CanPostMessages      bool `json:"can_post_messages,omitempty"`
	CanEditMessages      bool `json:"can_edit_messages,omitempty"`
	CanDeleteMessages    bool `json:"can_delete_messages,omitempty"`
	CanInviteUsers       bool `json:"can_invite_users,omitempty"`
	CanRestrictMembers   bool `json:"can_restrict_members,omitempty"`
	CanPinMessages       bool `json:"can_pin_messages,omitempty"`
	CanPromoteMembers    bool `json:"can_promote_members,omitempty"`
	CanSendMessages      bool `json:"can_send_messages,omitempty"`
	CanSendMediaMessages bool `json:"can_send_media_messages,omitempty"`
}

// ChatMember is a user's membership in a chat.
type ChatMember struct {
	User   *User            `json:"user"`
	Status ChatMemberStatus `json:"status"`
	Permissions
}
