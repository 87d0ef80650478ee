package dto

// RegisterForm is posted by the registration page.
type RegisterForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	FullName string `form:"fullname"`
	Password string `form:"password"`
}

// LoginForm is posted by the login page.
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// CreatePostForm carries the text fields of the new-post form. The image arrives
// as the multipart file "postimage".
type CreatePostForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
}
