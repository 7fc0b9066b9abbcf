package dto

type CreateCategoryInput struct {
	Name        string
	Description string
	Color       string
	UserID      string
}

type UpdateCategoryInput struct {
	ID          string
	Name        string
	Description string
	Color       string
}
