package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/internal/handlers"
	"github.com/questweaver/questweaver/pkg/chat"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// decodeError surfaces the API's error message when a call fails.
func decodeError(statusCode int, body []byte) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", statusCode, string(body))
	}
	return fmt.Errorf("%s", errorResp.Error)
}

func createGame(client *http.Client, baseURL string, req handlers.CreateGameRequest) (*handlers.GameResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/game", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp.StatusCode, body)
	}

	var game handlers.GameResponse
	if err := json.Unmarshal(body, &game); err != nil {
		return nil, fmt.Errorf("failed to parse game response: %w", err)
	}
	return &game, nil
}

func getGame(client *http.Client, baseURL string, gameID uuid.UUID) (*handlers.GameResponse, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/game/%s", baseURL, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}

	var game handlers.GameResponse
	if err := json.Unmarshal(body, &game); err != nil {
		return nil, fmt.Errorf("failed to parse game response: %w", err)
	}
	return &game, nil
}

func postTurn(client *http.Client, baseURL string, gameID uuid.UUID, req chat.TurnRequest) (*chat.TurnResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/game/%s/turn", baseURL, gameID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}

	var turnResp chat.TurnResponse
	if err := json.Unmarshal(body, &turnResp); err != nil {
		return nil, fmt.Errorf("failed to parse turn response: %w", err)
	}
	return &turnResp, nil
}

func postCancel(client *http.Client, baseURL string, gameID uuid.UUID) (bool, error) {
	resp, err := client.Post(fmt.Sprintf("%s/v1/game/%s/cancel", baseURL, gameID), "application/json", nil)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, decodeError(resp.StatusCode, body)
	}

	var result struct {
		Cancelled bool `json:"cancelled"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("failed to parse cancel response: %w", err)
	}
	return result.Cancelled, nil
}

func postRetry(client *http.Client, baseURL string, gameID uuid.UUID) (*chat.TurnResponse, error) {
	resp, err := client.Post(fmt.Sprintf("%s/v1/game/%s/retry", baseURL, gameID), "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}

	var turnResp chat.TurnResponse
	if err := json.Unmarshal(body, &turnResp); err != nil {
		return nil, fmt.Errorf("failed to parse turn response: %w", err)
	}
	return &turnResp, nil
}

func getExport(client *http.Client, baseURL string, gameID uuid.UUID) (string, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/game/%s/export", baseURL, gameID))
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp.StatusCode, body)
	}
	return string(body), nil
}
