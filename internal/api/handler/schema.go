package handler

// ── Auth ──────────────────────────────────────────────────────────────────────

// registerRequest is the self-registration payload.
type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30" example:"ada_writes"`
	Email    string `json:"email" validate:"required,email" example:"ada@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"secret123"`
	Role     string `json:"role" validate:"omitempty,oneof=reader writer admin" example:"writer"`
}

// loginRequest authenticates by email and password.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"ada@example.com"`
	Password string `json:"password" validate:"required" example:"secret123"`
}

// ── Articles ──────────────────────────────────────────────────────────────────

// createArticleRequest is the payload for POST /articles.
type createArticleRequest struct {
	Title   string   `json:"title" validate:"required" example:"Structured logging in Go"`
	Content string   `json:"content" validate:"required" example:"zerolog writes JSON lines..."`
	Tags    []string `json:"tags" example:"go,logging"`
	Status  string   `json:"status" validate:"omitempty,oneof=draft published" example:"draft"`
}

// updateArticleRequest is a partial update; absent fields are left unchanged.
type updateArticleRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
	Status  *string   `json:"status" validate:"omitempty,oneof=draft published"`
}

// ── Reviews ───────────────────────────────────────────────────────────────────

// createReviewRequest is the payload for POST /likes/reviews/:articleId.
type createReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5" example:"4"`
	Comment string `json:"comment" validate:"required" example:"Clear and practical write-up."`
}

// updateReviewRequest is a partial review update.
type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
}

// ── Admin ─────────────────────────────────────────────────────────────────────

// updateUserRequest is the admin user patch.
type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=30"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=reader writer admin"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}
