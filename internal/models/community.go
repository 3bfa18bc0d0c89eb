package models

import "time"

// CommunityRole describes how a user belongs to a community.
type CommunityRole string

const (
	// CommunityRoleAdmin is the creator of the community.
	CommunityRoleAdmin CommunityRole = "admin"
	// CommunityRoleMember joined with the community code.
	CommunityRoleMember CommunityRole = "member"
)

// Community is a neighborhood group that buys a shared installation.
type Community struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:120;not null" json:"name"`
	ZipCode       string    `gorm:"size:16;not null" json:"zip_code"`
	Description   *string   `gorm:"type:text" json:"description"`
	AdminID       uint      `gorm:"not null;index" json:"admin_id"`
	Admin         *Profile  `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	CommunityCode string    `gorm:"size:6;not null;uniqueIndex" json:"community_code"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// CommunityMember joins a user to a community. A user has at most one row.
type CommunityMember struct {
	CommunityID uint       `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	UserID      uint       `gorm:"primaryKey;autoIncrement:false;uniqueIndex:idx_community_members_user" json:"user_id"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	User        *Profile   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	JoinedAt    time.Time  `gorm:"autoCreateTime" json:"joined_at"`
}

// TableName specifies the table name for GORM.
func (CommunityMember) TableName() string {
	return "community_members"
}

// CommunityMemberCount is a row of the community_member_counts view.
type CommunityMemberCount struct {
	CommunityID uint  `json:"community_id"`
	MemberCount int64 `json:"member_count"`
}

// TableName specifies the view name for GORM.
func (CommunityMemberCount) TableName() string {
	return "community_member_counts"
}
