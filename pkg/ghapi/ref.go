package ghapi

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidReference is returned when a Ref cannot be turned into a path.
var ErrInvalidReference = errors.New("invalid resource reference")

type refKind int

const (
	refNone refKind = iota
	refName
	refID
	refEntity
)

// Ref identifies a resource by name ("owner/name", "octocat"), by numeric
// id, or by an already decoded entity. The zero Ref refers to nothing.
type Ref struct {
	kind   refKind
	name   string
	id     int64
	entity any
}

// RefName references a resource by its raw identifier.
func RefName(name string) Ref {
	return Ref{kind: refName, name: name}
}

// RefID references a resource by numeric id.
func RefID(id int64) Ref {
	return Ref{kind: refID, id: id}
}

// RefEntity references a resource through a decoded model. The entity must
// implement FullNamer, LoginNamer or Identifier.
func RefEntity(entity any) Ref {
	return Ref{kind: refEntity, entity: entity}
}

// IsZero reports whether r references nothing.
func (r Ref) IsZero() bool {
	return r.kind == refNone
}

func (r Ref) String() string {
	switch r.kind {
	case refName:
		return r.name
	case refID:
		return strconv.FormatInt(r.id, 10)
	case refEntity:
		return fmt.Sprintf("%v", r.entity)
	default:
		return "<none>"
	}
}

// FullNamer is implemented by entities with an "owner/name" identity.
type FullNamer interface {
	GetFullName() string
}

// LoginNamer is implemented by accounts.
type LoginNamer interface {
	GetLogin() string
}

// Identifier is implemented by entities with a numeric id.
type Identifier interface {
	GetID() int64
}

// PathBase holds the leading path segment used for name and id references.
type PathBase struct {
	Name string
	// ID defaults to Name when empty.
	ID string
}

// Path bases for the resource families that accept both names and ids.
var (
	RepositoryBase   = PathBase{Name: "repos", ID: "repositories"}
	UserBase         = PathBase{Name: "users", ID: "user"}
	OrganizationBase = PathBase{Name: "orgs", ID: "organizations"}
)

// ResolvePath turns ref into a canonical path such as "repos/owner/name" or
// "repositories/42". Names are used verbatim. Entities resolve through their
// full name, then login, then id.
func ResolvePath(ref Ref, base PathBase) (string, error) {
	name, id, err := resolve(ref)
	if err != nil {
		return "", err
	}

	if name != "" {
		return base.Name + "/" + name, nil
	}

	idBase := base.ID
	if idBase == "" {
		idBase = base.Name
	}

	return idBase + "/" + strconv.FormatInt(id, 10), nil
}

func resolve(ref Ref) (string, int64, error) {
	switch ref.kind {
	case refName:
		if ref.name == "" {
			return "", 0, fmt.Errorf("%w: empty name", ErrInvalidReference)
		}

		return ref.name, 0, nil

	case refID:
		if ref.id <= 0 {
			return "", 0, fmt.Errorf("%w: id %d", ErrInvalidReference, ref.id)
		}

		return "", ref.id, nil

	case refEntity:
		if named, ok := ref.entity.(FullNamer); ok {
			if name := named.GetFullName(); name != "" {
				return name, 0, nil
			}
		}

		if named, ok := ref.entity.(LoginNamer); ok {
			if login := named.GetLogin(); login != "" {
				return login, 0, nil
			}
		}

		if identified, ok := ref.entity.(Identifier); ok {
			if id := identified.GetID(); id > 0 {
				return "", id, nil
			}
		}

		return "", 0, fmt.Errorf("%w: %T has no full name, login or id", ErrInvalidReference, ref.entity)

	default:
		return "", 0, fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}
}

var repositorySlug = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})/[A-Za-z0-9._-]{1,100}$`)

// RepoSlug returns the raw "owner/name" of a repository name reference.
// Id and entity references report false.
func RepoSlug(ref Ref) (string, bool) {
	if ref.kind != refName {
		return "", false
	}

	return ref.name, true
}

// ValidRepositorySlug reports whether slug is a well formed "owner/name".
func ValidRepositorySlug(slug string) bool {
	if !repositorySlug.MatchString(slug) {
		return false
	}

	_, name, _ := strings.Cut(slug, "/")

	return name != "." && name != ".."
}
