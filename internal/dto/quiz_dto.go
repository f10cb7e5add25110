package dto

type GenerateQuizRequest struct {
	ClassName string `json:"class_name"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

type UpdateBestScoreRequest struct {
	BestScore int `json:"best_score"`
}

type CreateNoteRequest struct {
	ClassName string `json:"class_name"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

type AddClassRequest struct {
	Name string `json:"name"`
}
