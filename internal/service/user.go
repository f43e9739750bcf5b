package service

import (
	"context"
	"net/mail"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/model"
	"requirement-service/internal/policy"
	"requirement-service/pkg/optional"
	"requirement-service/pkg/password"
	"requirement-service/prometheus"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserInput is the payload for creating a user
type UserInput struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	IsActive    *bool    `json:"is_active"`

	// Only set by the bootstrap command
	IsSuperuser bool `json:"-"`
}

// UserUpdate is the partial payload for updating a user
type UserUpdate struct {
	Username    optional.Field[string]   `json:"username"`
	Email       optional.Field[string]   `json:"email"`
	Password    optional.Field[string]   `json:"password"`
	FirstName   optional.Field[string]   `json:"first_name"`
	LastName    optional.Field[string]   `json:"last_name"`
	Role        optional.Field[string]   `json:"role"`
	Permissions optional.Field[[]string] `json:"permissions"`
	IsActive    optional.Field[bool]     `json:"is_active"`
}

// UserFilter narrows List
type UserFilter struct {
	Search   string
	Role     string
	IsActive *bool
}

// UserService manages user accounts
type UserService struct {
	db     *gorm.DB
	hasher *password.Hasher
}

func NewUserService(db *gorm.DB, hasher *password.Hasher) *UserService {
	return &UserService{db: db, hasher: hasher}
}

// List returns users ordered by username
func (s *UserService) List(ctx context.Context, params ListParams, filter UserFilter) (*Page[UserSummary], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	params = params.Normalize()

	query := s.db.WithContext(ctx).Model(&model.User{}).
		Scopes(searchScope(filter.Search, "username", "email", "first_name", "last_name"))
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internal(err, "failed to count users")
	}

	var users []model.User
	if err := query.Order("username asc").Scopes(paginate(params)).Find(&users).Error; err != nil {
		return nil, internal(err, "failed to list users")
	}

	items := make([]UserSummary, len(users))
	for i := range users {
		items[i] = newUserSummary(&users[i])
	}
	return &Page[UserSummary]{Items: items, Total: total, Skip: params.Skip, Limit: params.Limit}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*UserResponse, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	u, err := loadUser(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return newUserResponse(u), nil
}

// Create validates the password before touching the store and rejects
// duplicate usernames or emails with Conflict.
func (s *UserService) Create(ctx context.Context, in UserInput) (*UserResponse, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	u, err := s.newUser(in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserUnique(tx, u.Username, u.Email, ""); err != nil {
			return err
		}
		return tx.Create(u).Error
	})
	if err != nil {
		return nil, internal(err, "failed to create user")
	}
	return newUserResponse(u), nil
}

func (s *UserService) newUser(in UserInput) (*model.User, error) {
	username, email := trimmed(in.Username), trimmed(in.Email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := password.Validate(in.Password); err != nil {
		return nil, apperror.Validation("%v", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal(err, "failed to hash password")
	}

	role := trimmed(in.Role)
	if role == "" {
		role = model.RoleAnalyst
	}
	perms := in.Permissions
	if perms == nil {
		perms = policy.DefaultPermissions
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	return &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    trimmed(in.FirstName),
		LastName:     trimmed(in.LastName),
		Role:         role,
		Permissions:  datatypes.JSONSlice[string](append([]string(nil), perms...)),
		IsActive:     active,
		IsSuperuser:  in.IsSuperuser,
	}, nil
}

// Update applies the supplied fields. A superuser can only be modified by a superuser.
func (s *UserService) Update(ctx context.Context, actor *model.User, id string, in UserUpdate) (*UserResponse, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var u *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if u, err = loadUser(tx, id); err != nil {
			return err
		}
		if u.IsSuperuser && !actor.IsSuperuser {
			return apperror.Forbidden("only a superuser can modify a superuser")
		}

		checkUnique := false
		if v, ok := in.Username.Get(); ok {
			v = trimmed(v)
			if err := validateUsername(v); err != nil {
				return err
			}
			checkUnique = checkUnique || v != u.Username
			u.Username = v
		} else if in.Username.Set {
			return apperror.Validation("username cannot be null")
		}
		if v, ok := in.Email.Get(); ok {
			v = trimmed(v)
			if err := validateEmail(v); err != nil {
				return err
			}
			checkUnique = checkUnique || v != u.Email
			u.Email = v
		} else if in.Email.Set {
			return apperror.Validation("email cannot be null")
		}
		if v, ok := in.Password.Get(); ok {
			if err := password.Validate(v); err != nil {
				return apperror.Validation("%v", err)
			}
			hash, err := s.hasher.Hash(v)
			if err != nil {
				return apperror.Internal(err, "failed to hash password")
			}
			u.PasswordHash = hash
		}
		if in.FirstName.Set {
			u.FirstName = trimmed(in.FirstName.Value)
		}
		if in.LastName.Set {
			u.LastName = trimmed(in.LastName.Value)
		}
		if v, ok := in.Role.Get(); ok && trimmed(v) != "" {
			u.Role = trimmed(v)
		} else if in.Role.Set {
			return apperror.Validation("role cannot be empty")
		}
		if in.Permissions.Set {
			u.Permissions = datatypes.JSONSlice[string](append([]string{}, in.Permissions.Value...))
		}
		if in.IsActive.Set {
			if !in.IsActive.Value && u.ID == actor.ID {
				return apperror.Validation("cannot deactivate your own account")
			}
			u.IsActive = in.IsActive.Value
		}

		if checkUnique {
			if err := ensureUserUnique(tx, u.Username, u.Email, u.ID); err != nil {
				return err
			}
		}
		return tx.Save(u).Error
	})
	if err != nil {
		return nil, internal(err, "failed to update user")
	}
	return newUserResponse(u), nil
}

// Delete removes a user that no project or requirement names as creator.
// Requirement assignments to the user are cleared.
func (s *UserService) Delete(ctx context.Context, actor *model.User, id string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := loadUser(tx, id)
		if err != nil {
			return err
		}
		if u.ID == actor.ID {
			return apperror.Validation("cannot delete your own account")
		}
		if u.IsSuperuser {
			return apperror.Forbidden("superusers cannot be deleted")
		}

		var created int64
		if err := tx.Model(&model.Project{}).Where("created_by = ?", u.ID).Count(&created).Error; err != nil {
			return err
		}
		if created == 0 {
			if err := tx.Model(&model.Requirement{}).Where("created_by = ?", u.ID).Count(&created).Error; err != nil {
				return err
			}
		}
		if created > 0 {
			return apperror.Conflict("user %s still owns projects or requirements; deactivate instead", u.Username)
		}

		if err := tx.Model(&model.Requirement{}).Where("assigned_to = ?", u.ID).
			Update("assigned_to", nil).Error; err != nil {
			return err
		}
		return tx.Delete(u).Error
	})
	return internal(err, "failed to delete user")
}

func (s *UserService) Activate(ctx context.Context, actor *model.User, id string) (*UserResponse, error) {
	return s.setActive(ctx, actor, id, true)
}

func (s *UserService) Deactivate(ctx context.Context, actor *model.User, id string) (*UserResponse, error) {
	return s.setActive(ctx, actor, id, false)
}

func (s *UserService) setActive(ctx context.Context, actor *model.User, id string, active bool) (*UserResponse, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var u *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if u, err = loadUser(tx, id); err != nil {
			return err
		}
		if !active && u.ID == actor.ID {
			return apperror.Validation("cannot deactivate your own account")
		}
		if u.IsSuperuser && !actor.IsSuperuser {
			return apperror.Forbidden("only a superuser can modify a superuser")
		}
		u.IsActive = active
		return tx.Model(u).Update("is_active", active).Error
	})
	if err != nil {
		return nil, internal(err, "failed to change user state")
	}
	return newUserResponse(u), nil
}

func loadUser(tx *gorm.DB, id string) (*model.User, error) {
	var u model.User
	if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func ensureUserUnique(tx *gorm.DB, username, email, exceptID string) error {
	check := func(column, value, label string) error {
		query := tx.Model(&model.User{}).Where(column+" = ?", value)
		if exceptID != "" {
			query = query.Where("id <> ?", exceptID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict("%s already registered", label)
		}
		return nil
	}
	if err := check("username", username, "username"); err != nil {
		return err
	}
	return check("email", email, "email")
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 50 {
		return apperror.Validation("username must be between 3 and 50 characters")
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > 100 {
		return apperror.Validation("invalid email address")
	}
	return nil
}
