package github

// pullResponse is the subset of the pull request payload the tool
// consumes.
type pullResponse struct {
	Title        string `json:"title"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	ChangedFiles int    `json:"changed_files"`
}

// pullCommit is one entry of the pulls/<n>/commits listing.
type pullCommit struct {
	SHA    string       `json:"sha"`
	Commit commitDetail `json:"commit"`
}

type commitDetail struct {
	Message string       `json:"message"`
	Author  commitAuthor `json:"author"`
}

type commitAuthor struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// commitResponse is the subset of the commits/<sha> payload the tool
// consumes.
type commitResponse struct {
	SHA    string       `json:"sha"`
	Commit commitDetail `json:"commit"`
	Stats  commitStats  `json:"stats"`
	Files  []struct{}   `json:"files"`
}

type commitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}
