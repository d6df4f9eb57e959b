package transfer

type InstagramContainerRequest struct {
	ImageURL    string `json:"image_url"`
	Caption     string `json:"caption,omitempty"`
	AccessToken string `json:"access_token"`
}

type InstagramPublishRequest struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}

// InstagramIDResponse is returned by both /media and /media_publish.
type InstagramIDResponse struct {
	ID string `json:"id"`
}

type InstagramRefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type InstagramErrorResponse struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode"`
		IsTransient    bool   `json:"is_transient"`
		ErrorUserTitle string `json:"error_user_title"`
		ErrorUserMsg   string `json:"error_user_msg"`
		FbtraceID      string `json:"fbtrace_id"`
	} `json:"error"`
}

type FreeimageResponse struct {
	StatusCode int `json:"status_code"`
	Image      struct {
		URL     string `json:"url"`
		Name    string `json:"name"`
		Display string `json:"display_url"`
	} `json:"image"`
	StatusTxt string `json:"status_txt"`
	Error     struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}
