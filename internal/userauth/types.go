package userauth

type tokenInfo struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
	Scope        string `json:"scope,omitempty"`
}

type callbackResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	TokenInfo tokenInfo `json:"tokenInfo"`
}

type appTokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	TokenType   string `json:"tokenType"`
}

type refreshResponse struct {
	Success   bool      `json:"success"`
	TokenInfo tokenInfo `json:"tokenInfo"`
}
