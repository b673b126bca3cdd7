package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"
)

const apiBase = "http://localhost:8080/api/v1"

type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type SigninResponse struct {
	AccessToken string `json:"accessToken"`
}

func signupUser(username, password string) (*User, error) {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	resp, err := http.Post(apiBase+"/auth/signup", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("signup failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	resp, err = http.Post(apiBase+"/auth/signin", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("signin failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result SigninResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	return &User{
		Username: username,
		Password: password,
		Token:    result.AccessToken,
	}, nil
}

func createTask(token, title, description string, labels []string) (*Task, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"title":       title,
		"description": description,
		"labels":      labels,
	})

	req, _ := http.NewRequest("POST", apiBase+"/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create task failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result Task
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	return &result, nil
}

func updateTaskStatus(token, taskID, status string) error {
	body, _ := json.Marshal(map[string]string{"status": status})

	req, _ := http.NewRequest("PATCH", apiBase+"/tasks/"+taskID+"/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("update status failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

func generateUsername(index int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	random := make([]byte, 4)
	for i := range random {
		random[i] = letters[rand.Intn(len(letters))]
	}
	return fmt.Sprintf("demo_%d_%s", index, string(random))
}

func main() {
	rand.Seed(time.Now().UnixNano())

	fmt.Println("Seeding demo task data...")

	password := "Demopassword123"
	var users []*User

	// Register 3 demo users
	fmt.Println("\nRegistering 3 users...")
	for i := 1; i <= 3; i++ {
		username := generateUsername(i)
		user, err := signupUser(username, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to register user %d: %v\n", i, err)
			os.Exit(1)
		}
		users = append(users, user)
		fmt.Printf("  ✓ User %d: %s\n", i, user.Username)
	}

	// Each user gets a handful of tasks across the lifecycle
	seedTasks := []struct {
		title       string
		description string
		labels      []string
		status      string
	}{
		{"Buy groceries", "milk, eggs, coffee", []string{"errand"}, ""},
		{"Write quarterly report", "numbers due Friday", []string{"work", "urgent"}, "IN_PROGRESS"},
		{"Book dentist appointment", "", []string{"health"}, ""},
		{"Ship v2 release", "tag and announce", []string{"work"}, "DONE"},
	}

	fmt.Println("\nCreating tasks...")
	for i, user := range users {
		for _, seed := range seedTasks {
			task, err := createTask(user.Token, seed.title, seed.description, seed.labels)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to create task for user %d: %v\n", i+1, err)
				os.Exit(1)
			}
			if seed.status != "" {
				if err := updateTaskStatus(user.Token, task.ID, seed.status); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to update task status: %v\n", err)
					os.Exit(1)
				}
			}
		}
		fmt.Printf("  ✓ User %d: %d tasks\n", i+1, len(seedTasks))
	}

	fmt.Println("\n" + "============================================================")
	fmt.Println("DEMO DATA SEEDED")
	fmt.Println("============================================================")

	fmt.Println("\nCredentials (all share the same password):")
	fmt.Printf("  Password: %s\n", password)
	for i, user := range users {
		fmt.Printf("\nUser %d:\n", i+1)
		fmt.Printf("  Username: %s\n", user.Username)
		fmt.Printf("  Token:    %s\n", user.Token)
		fmt.Printf("  Events:   ws://localhost:8080/api/v1/tasks/events?token=%s\n", user.Token)
	}
}
