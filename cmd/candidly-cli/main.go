// Command candidly-cli is a terminal client for a Candidly server.
//
// Interactive mode runs a full mock interview from the terminal: it pastes a
// resume, trades answers for questions, and prints the scored transcript at
// the end. With -watch it instead tails the live transcript feed of an
// existing session, e.g. one driven by an agent over MCP.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/candidly-dev/candidly/internal/session"
	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/client"
)

func main() {
	os.Exit(run())
}

func run() int {
	serverURL := flag.String("server", "http://localhost:8080", "Candidly server base URL")
	token := flag.String("token", "", "access token from /api/auth/login (optional)")
	resumePath := flag.String("resume", "", "path to a plain-text resume file")
	role := flag.String("role", "", "target role to practise for, e.g. \"Backend Engineer\"")
	difficulty := flag.String("difficulty", "", "question difficulty: easy, medium or hard")
	persona := flag.String("persona", "", "interviewer persona: friendly, strict or stress")
	maxQuestions := flag.Int("max-questions", 0, "cap on distinct questions (0 = server default)")
	watchID := flag.Int64("watch", 0, "tail the live transcript of session id instead of interviewing")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []client.Option
	if *token != "" {
		opts = append(opts, client.WithToken(*token))
	}
	interviews, err := client.NewInterview(*serverURL, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "candidly-cli: %v\n", err)
		return 1
	}

	if *watchID != 0 {
		if err := watch(ctx, interviews, *watchID); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "candidly-cli: %v\n", err)
			return 1
		}
		return 0
	}

	if *role == "" {
		fmt.Fprintln(os.Stderr, "candidly-cli: -role is required (or use -watch)")
		return 2
	}
	resume, err := readResume(*resumePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "candidly-cli: %v\n", err)
		return 1
	}

	evaluator, err := client.NewEvaluation(*serverURL, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "candidly-cli: %v\n", err)
		return 1
	}

	if err := interview(ctx, session.New(interviews, evaluator), session.StartParams{
		ResumeText:   resume,
		TargetRole:   *role,
		Difficulty:   api.Difficulty(*difficulty),
		Persona:      api.Persona(*persona),
		MaxQuestions: *maxQuestions,
	}); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "candidly-cli: %v\n", err)
		return 1
	}
	return 0
}

// readResume loads the resume file, or reads stdin up to a blank line when no
// path was given.
func readResume(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read resume: %w", err)
		}
		return string(data), nil
	}

	fmt.Println("Paste your resume, then enter a blank line:")
	var b strings.Builder
	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read resume from stdin: %w", err)
	}
	return b.String(), nil
}

// interview runs the interactive question/answer loop until the candidate
// types /end or closes stdin.
func interview(ctx context.Context, orc *session.Orchestrator, params session.StartParams) error {
	if err := orc.Start(ctx, params); err != nil {
		return err
	}
	view := orc.View()
	fmt.Printf("\nSession %d started (%s, %s persona). Type /end to finish.\n", view.SessionID, view.TargetRole, view.Persona)
	fmt.Printf("\nInterviewer: %s\n", view.PendingQuestion)

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("\nYou: ")
		if !sc.Scan() {
			break
		}
		answer := strings.TrimSpace(sc.Text())
		if answer == "" {
			continue
		}
		if answer == "/end" {
			break
		}

		if err := orc.SubmitAnswer(ctx, answer); err != nil {
			if errors.Is(err, session.ErrSessionEnded) {
				break
			}
			fmt.Fprintf(os.Stderr, "submit failed: %v — try again or /end\n", err)
			continue
		}
		fmt.Printf("\nInterviewer: %s\n", orc.View().PendingQuestion)
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
	}

	if err := orc.End(ctx); err != nil && !errors.Is(err, session.ErrSessionEnded) {
		// Local state is ended regardless; the summary is still worth printing.
		slog.Warn("end reported an error", "err", err)
	}
	printSummary(orc)
	return nil
}

// printSummary waits for outstanding scores and prints the final transcript
// with per-answer evaluations.
func printSummary(orc *session.Orchestrator) {
	orc.WaitEvaluations()

	entries := orc.Snapshot()
	fmt.Printf("\n── Session summary ──\n")

	var scored int
	var total float64
	for _, e := range entries {
		switch e.Role {
		case session.RoleAssistant:
			fmt.Printf("\nQ: %s\n", e.Content)
		case session.RoleUser:
			fmt.Printf("A: %s\n", e.Content)
			if e.Evaluation != nil {
				fmt.Printf("   score %.0f/100 (relevance %.0f, depth %.0f, clarity %.0f, confidence %.0f)\n",
					e.Evaluation.OverallScore, e.Evaluation.Relevance, e.Evaluation.Depth,
					e.Evaluation.Clarity, e.Evaluation.Confidence)
				if e.Evaluation.Feedback != "" {
					fmt.Printf("   feedback: %s\n", e.Evaluation.Feedback)
				}
				scored++
				total += e.Evaluation.OverallScore
			}
		}
	}
	if scored > 0 {
		fmt.Printf("\nOverall: %.1f/100 across %d scored answers\n", total/float64(scored), scored)
	}
}

// watch tails the live transcript feed of an existing session until it ends.
func watch(ctx context.Context, interviews *client.Interview, id int64) error {
	events, err := interviews.Watch(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Watching session %d…\n", id)

	for ev := range events {
		switch ev.Type {
		case api.EventEntry:
			label := "Interviewer"
			if ev.Role == "user" {
				label = "Candidate"
			}
			fmt.Printf("[%d] %s: %s\n", ev.Seq, label, ev.Content)
		case api.EventScore:
			if ev.Evaluation != nil {
				fmt.Printf("[%d] score: %.0f/100\n", ev.Seq, ev.Evaluation.OverallScore)
			}
		case api.EventEnded:
			fmt.Printf("Session ended after %d turns.\n", ev.Seq)
			return nil
		}
	}
	return ctx.Err()
}
