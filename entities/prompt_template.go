package entities

type PromptTemplate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Prompt    string `json:"prompt"`
	Category  string `json:"category"`
	CreatedAt int64  `json:"createdAt"`
}
