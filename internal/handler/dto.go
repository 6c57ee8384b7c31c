package handler

type TopLinkResponse struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
}

type GroupSummaryResponse struct {
	Kind       string            `json:"kind"`
	Value      string            `json:"value"`
	Bullets    []string          `json:"bullets"`
	TopLinks   []TopLinkResponse `json:"top_links"`
	ItemsCount int               `json:"items_count"`
	Model      string            `json:"model"`
	Status     string            `json:"status"`
	CreatedAt  string            `json:"created_at"`
}

type DigestResponse struct {
	Date   string                 `json:"date"`
	Groups []GroupSummaryResponse `json:"groups"`
	Total  int                    `json:"total"`
}
