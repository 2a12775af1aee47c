package model

import "time"

// Role names carried in the JWT "role" claim.
const (
	RoleUser      = "USER"
	RoleRegulator = "REGULATOR"
)

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID                 – primary key identifier of the user.
//  Username           – unique handle used for login and gifting.
//  PasswordHash       – bcrypt hashed password.
//  IsRegulator        – treasury/administrator flag.
//  RegulatorBalance   – cash balance of the regulator, kept as a decimal string.
//  LastNFTGeneration  – when the user last generated an NFT (nil if never).
//  NFTGenerationCount – generations counted within the current day.
//  CreatedAt          – timestamp of creation.
type User struct {
	ID                 uint64     // users.id
	Username           string     // users.username
	PasswordHash       string     // users.password_hash
	IsRegulator        bool       // users.is_regulator
	RegulatorBalance   string     // users.regulator_balance
	LastNFTGeneration  *time.Time // users.last_nft_generation (nullable)
	NFTGenerationCount int        // users.nft_generation_count
	CreatedAt          time.Time  // users.created_at
}

// Role maps the regulator flag to a JWT role name.
func (u User) Role() string {
	if u.IsRegulator {
		return RoleRegulator
	}
	return RoleUser
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token value is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
