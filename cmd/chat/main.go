// Command chat is a terminal client for the localsearch SSE stream.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
)

var (
	serverURL   = flag.String("server", "http://localhost:8080", "localsearch server URL")
	temperature = flag.Float64("temp", 0.7, "Temperature for the answer generation")
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type searchRequest struct {
	Query       string    `json:"query"`
	History     []message `json:"history"`
	Temperature *float32  `json:"temperature,omitempty"`
}

type streamEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type sourceRef struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nBye.")
		cancel()
		os.Exit(0)
	}()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Println(boldGreen("localsearch chat"))
	fmt.Printf("Server: %s\n", boldCyan(*serverURL))
	fmt.Println("Type your question and press Enter. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()

	var history []message
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}

		fmt.Print(boldCyan("Assistant: "))
		answer, sources, err := ask(ctx, *serverURL, query, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			continue
		}
		fmt.Println()

		if len(sources) > 0 {
			fmt.Println(dim("Sources:"))
			for i, s := range sources {
				fmt.Println(dim(fmt.Sprintf("  [%d] %s", i+1, s.Title)))
			}
		}
		fmt.Println()

		history = append(history,
			message{Role: "user", Content: query},
			message{Role: "assistant", Content: answer},
		)
	}
}

// ask streams one answer, printing chunks as they arrive, and returns
// the full answer text plus the cited sources.
func ask(ctx context.Context, server, query string, history []message) (string, []sourceRef, error) {
	t := float32(*temperature)
	body, err := json.Marshal(searchRequest{Query: query, History: history, Temperature: &t})
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", server+"/api/search/stream", bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var answer strings.Builder
	var sources []sourceRef

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "sources":
			json.Unmarshal(ev.Data, &sources)
		case "response":
			var chunk string
			if err := json.Unmarshal(ev.Data, &chunk); err == nil {
				fmt.Print(chunk)
				answer.WriteString(chunk)
			}
		case "error":
			var msg string
			json.Unmarshal(ev.Data, &msg)
			return answer.String(), sources, fmt.Errorf("%s", msg)
		case "end":
			return answer.String(), sources, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return answer.String(), sources, err
	}
	return answer.String(), sources, fmt.Errorf("stream ended without terminal event")
}
