package model

import "time"

// Roles stored in users.role and carried in the JWT "role" claim.
const (
    RoleStudent = "STUDENT"
    RoleTutor   = "TUTOR"
    RoleAdmin   = "ADMIN"
)

// User represents an account on the platform.  Students book demo and
// regular classes, tutors publish availability and run batches, admins
// have full read access.  This struct corresponds to a row in the
// `users` table.
//
// Fields:
//  ID           - primary key identifier.
//  Email        - unique, stored lower-cased.
//  PasswordHash - bcrypt hash of the password.
//  Role         - one of STUDENT, TUTOR, ADMIN.
//  FullName     - display name shown to the counter-party.
//  IsActive     - whether the account may log in.
//  CreatedAt    - creation timestamp.
//  UpdatedAt    - last update timestamp.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    FullName     string    // users.full_name
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
