package ghapi

import (
	"context"
	"time"

	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// Migration states.
const (
	MigrationPending   = "pending"
	MigrationExporting = "exporting"
	MigrationExported  = "exported"
	MigrationFailed    = "failed"
)

// Migration is an organisation or user export.
type Migration struct {
	ID                 int64                      `json:"id"                  yaml:"id"`
	NodeID             schema.Optional[string]    `json:"node_id"             yaml:"node_id"`
	GUID               string                     `json:"guid"                yaml:"guid"`
	State              string                     `json:"state"               yaml:"state"`
	Owner              schema.Optional[User]      `json:"owner"               yaml:"owner"`
	LockRepositories   bool                       `json:"lock_repositories"   yaml:"lock_repositories"`
	ExcludeAttachments bool                       `json:"exclude_attachments" yaml:"exclude_attachments"`
	ExcludeReleases    bool                       `json:"exclude_releases"    yaml:"exclude_releases"`
	URL                string                     `json:"url"                 yaml:"url"`
	ArchiveURL         schema.Optional[string]    `json:"archive_url"         yaml:"archive_url"`
	Repositories       []Repository               `json:"repositories"        yaml:"repositories"        schema:"optional"`
	CreatedAt          schema.Optional[time.Time] `json:"created_at"          yaml:"created_at"`
	UpdatedAt          schema.Optional[time.Time] `json:"updated_at"          yaml:"updated_at"`
}

// Done reports whether the export finished, successfully or not.
func (m Migration) Done() bool {
	return m.State == MigrationExported || m.State == MigrationFailed
}

// MigrationOptions configure an organisation migration. Every option is
// sent explicitly.
type MigrationOptions struct {
	LockRepositories     bool `json:"lock_repositories"      yaml:"lock_repositories"      schema:"required"`
	ExcludeAttachments   bool `json:"exclude_attachments"    yaml:"exclude_attachments"    schema:"required"`
	ExcludeReleases      bool `json:"exclude_releases"       yaml:"exclude_releases"       schema:"required"`
	ExcludeOwnerProjects bool `json:"exclude_owner_projects" yaml:"exclude_owner_projects" schema:"required"`
}

// UserMigrationOptions configure a user migration. Absent options are left
// to the server default.
type UserMigrationOptions struct {
	LockRepositories     schema.Optional[bool] `json:"lock_repositories"      yaml:"lock_repositories"`
	ExcludeAttachments   schema.Optional[bool] `json:"exclude_attachments"    yaml:"exclude_attachments"`
	ExcludeReleases      schema.Optional[bool] `json:"exclude_releases"       yaml:"exclude_releases"`
	ExcludeOwnerProjects schema.Optional[bool] `json:"exclude_owner_projects" yaml:"exclude_owner_projects"`
}

// MigrationsClient manages organisation and user migrations.
type MigrationsClient interface {
	Start(ctx context.Context, org string, repositories []string, opts *MigrationOptions) (*Migration, error)
	List(ctx context.Context, org string, params *Params) *PaginationIterator[Migration]
	Status(ctx context.Context, org string, id int64) (*Migration, error)
	// ArchiveURL returns the short-lived download URL of an exported archive.
	ArchiveURL(ctx context.Context, org string, id int64) (string, error)
	DeleteArchive(ctx context.Context, org string, id int64) error
	UnlockRepository(ctx context.Context, org string, id int64, repo string) error

	StartUser(ctx context.Context, repositories []string, opts *UserMigrationOptions) (*Migration, error)
	ListUser(ctx context.Context, params *Params) *PaginationIterator[Migration]
	UserStatus(ctx context.Context, id int64) (*Migration, error)
	UserArchiveURL(ctx context.Context, id int64) (string, error)
	DeleteUserArchive(ctx context.Context, id int64) error
	UnlockUserRepository(ctx context.Context, id int64, repo string) error
}
