package indexing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const googleApiBase = "https://generativelanguage.googleapis.com"

// GoogleService implements Service on top of the Gemini file search store API.
// Index refs are fully qualified store names ("fileSearchStores/...").
type GoogleService struct {
	ApiKey    string
	TextModel string
	Client    *http.Client
}

var _ Service = &GoogleService{}

func NewGoogleService(apiKey string, textModel string) *GoogleService {
	if textModel == "" {
		textModel = "gemini-2.0-flash"
	}
	return &GoogleService{
		ApiKey:    apiKey,
		TextModel: textModel,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type googleStore struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type googleStoreListResponse struct {
	FileSearchStores []*googleStore `json:"fileSearchStores"`
	NextPageToken    string         `json:"nextPageToken"`
}

func (s *GoogleService) CreateOrGetStore(ctx context.Context, name string) (string, error) {
	existing, err := s.findStoreByDisplayName(ctx, name)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	payload, err := json.Marshal(googleStore{DisplayName: name})
	if err != nil {
		return "", err
	}

	resBody, err := s.do(ctx, "POST", googleApiBase+"/v1beta/fileSearchStores", "application/json", bytes.NewBuffer(payload), nil)
	if err != nil {
		return "", err
	}

	var created googleStore
	if err := json.Unmarshal(resBody, &created); err != nil {
		return "", err
	}
	if created.Name == "" {
		return "", fmt.Errorf("store create returned empty name, body %s", string(resBody))
	}
	return created.Name, nil
}

func (s *GoogleService) findStoreByDisplayName(ctx context.Context, displayName string) (string, error) {
	pageToken := ""
	for {
		endpoint := googleApiBase + "/v1beta/fileSearchStores?pageSize=100"
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		resBody, err := s.do(ctx, "GET", endpoint, "", nil, nil)
		if err != nil {
			return "", err
		}

		var list googleStoreListResponse
		if err := json.Unmarshal(resBody, &list); err != nil {
			return "", err
		}
		for _, store := range list.FileSearchStores {
			if store.DisplayName == displayName {
				return store.Name, nil
			}
		}
		if list.NextPageToken == "" {
			return "", nil
		}
		pageToken = list.NextPageToken
	}
}

func (s *GoogleService) Upload(ctx context.Context, indexRef string, data []byte, displayName string) error {
	endpoint := fmt.Sprintf("%s/upload/v1beta/%s:uploadToFileSearchStore", googleApiBase, indexRef)

	meta, err := json.Marshal(map[string]interface{}{
		"displayName": displayName,
	})
	if err != nil {
		return err
	}

	// Start a resumable upload session, then send the bytes in one shot.
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(meta))
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", s.ApiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", fmt.Sprintf("%d", len(data)))

	res, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	resBody, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("upload start error, code %d, body %s", res.StatusCode, string(resBody))
	}

	uploadURL := res.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return fmt.Errorf("upload start returned no upload url")
	}

	uploadReq, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	uploadReq.Header.Set("x-goog-api-key", s.ApiKey)
	uploadReq.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	uploadReq.Header.Set("X-Goog-Upload-Offset", "0")

	uploadRes, err := s.Client.Do(uploadReq)
	if err != nil {
		return err
	}
	uploadBody, err := io.ReadAll(uploadRes.Body)
	uploadRes.Body.Close()
	if err != nil {
		return err
	}
	if uploadRes.StatusCode != http.StatusOK {
		return fmt.Errorf("upload finalize error, code %d, body %s", uploadRes.StatusCode, string(uploadBody))
	}
	return nil
}

func (s *GoogleService) Resolve(ctx context.Context, indexRef string) (bool, error) {
	endpoint := fmt.Sprintf("%s/v1beta/%s", googleApiBase, indexRef)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("x-goog-api-key", s.ApiKey)

	res, err := s.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.StatusCode != http.StatusOK {
		resBody, _ := io.ReadAll(res.Body)
		return false, fmt.Errorf("store lookup error, code %d, body %s", res.StatusCode, string(resBody))
	}
	return true, nil
}

type googleQueryPart struct {
	Text string `json:"text"`
}

type googleQueryContent struct {
	Parts []*googleQueryPart `json:"parts"`
	Role  string             `json:"role,omitempty"`
}

type googleFileSearchTool struct {
	FileSearch struct {
		FileSearchStoreNames []string `json:"fileSearchStoreNames"`
	} `json:"fileSearch"`
}

type googleQueryRequest struct {
	Contents []*googleQueryContent   `json:"contents"`
	Tools    []*googleFileSearchTool `json:"tools"`
}

type googleQueryResponse struct {
	Candidates []struct {
		Content *googleQueryContent `json:"content"`
	} `json:"candidates"`
}

func (s *GoogleService) Query(ctx context.Context, indexRefs []string, query string) (string, error) {
	tool := &googleFileSearchTool{}
	tool.FileSearch.FileSearchStoreNames = indexRefs

	payload := googleQueryRequest{
		Contents: []*googleQueryContent{
			{
				Parts: []*googleQueryPart{{Text: query}},
				Role:  "user",
			},
		},
		Tools: []*googleFileSearchTool{tool},
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", googleApiBase, s.TextModel)
	resBody, err := s.do(ctx, "POST", endpoint, "application/json", bytes.NewBuffer(payloadJson), nil)
	if err != nil {
		return "", err
	}

	var queryRes googleQueryResponse
	if err := json.Unmarshal(resBody, &queryRes); err != nil {
		return "", err
	}
	if len(queryRes.Candidates) == 0 || queryRes.Candidates[0].Content == nil || len(queryRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty query response, body %s", string(resBody))
	}
	return queryRes.Candidates[0].Content.Parts[0].Text, nil
}

func (s *GoogleService) DeleteStore(ctx context.Context, indexRef string) error {
	endpoint := fmt.Sprintf("%s/v1beta/%s?force=true", googleApiBase, indexRef)
	_, err := s.do(ctx, "DELETE", endpoint, "", nil, nil)
	return err
}

func (s *GoogleService) do(ctx context.Context, method, endpoint, contentType string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", s.ApiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from google response, code %d, body %s", res.StatusCode, string(resBody))
	}
	return resBody, nil
}
