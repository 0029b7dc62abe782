package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/studyline/testflow/config"
	"github.com/studyline/testflow/internal/api"
	"github.com/studyline/testflow/internal/engine"
	"github.com/studyline/testflow/internal/model"
)

// runAttempt walks the configured test task by task: print the prompt, read
// the learner's answer, submit it, and finish with the graded results view.
func runAttempt(ctx context.Context, mgr *engine.Manager, client api.Client, cfg *config.Config) error {
	if cfg.Attempt.LessonID != "" {
		rows, err := client.LessonStatus(ctx, cfg.Attempt.LessonID)
		if err != nil {
			log.Warn().Err(err).Str("lessonID", cfg.Attempt.LessonID).Msg("Could not fetch lesson test summary")
		} else {
			for _, row := range rows {
				fmt.Printf("%s  %s  [%s]\n", row.TestID, row.Name, row.Status)
			}
		}
	}

	key := engine.Key{
		TestID:   cfg.Attempt.TestID,
		LessonID: cfg.Attempt.LessonID,
		CourseID: cfg.Attempt.CourseID,
	}
	sess, err := mgr.Open(ctx, key)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			fmt.Println("Test not found.")
			return nil
		}
		return err
	}
	def := sess.Definition()
	fmt.Printf("\n=== %s (%d tasks, pass at %.0f%%) ===\n", def.Name, def.TaskCount(), def.PassingPercentage*100)

	if completed, ok := sess.State().(*model.CompletedAttempt); ok {
		printResults(def, completed)
		return nil
	}

	in := bufio.NewScanner(os.Stdin)
	taskID := resumeTask(def, sess.State())
	for {
		nav, err := sess.Navigate(taskID)
		if err != nil {
			return err
		}
		printTask(nav, sess)

		if !in.Scan() {
			return in.Err()
		}
		value := strings.TrimSpace(in.Text())
		if value == "/prev" {
			if nav.PrevLink != "" {
				taskID = def.Tasks[nav.Current.Order-1].ID
			}
			continue
		}

		err = sess.Submit(ctx, engine.Submission{TaskID: taskID, Value: value, Finishing: nav.IsLast})
		if err != nil {
			fmt.Printf("  ! %v\n", err)
			var retryable *engine.RetryableError
			if errors.As(err, &retryable) && confirm(in, "  retry? [y/N] ") {
				if err = retryable.Retry(ctx); err != nil {
					fmt.Printf("  ! retry failed: %v\n", err)
				}
			}
			if err != nil {
				continue
			}
		}

		if nav.IsLast {
			break
		}
		taskID = def.Tasks[nav.Current.Order+1].ID
	}

	completed, ok := sess.State().(*model.CompletedAttempt)
	if !ok {
		return fmt.Errorf("attempt did not reach a completed state")
	}
	printResults(def, completed)
	return nil
}

// resumeTask picks up where a previous visit left off.
func resumeTask(def *model.TestDefinition, state model.AttemptState) string {
	if active, ok := state.(*model.ActiveAttempt); ok && active.LastTaskID != "" {
		if def.TaskByID(active.LastTaskID) != nil {
			return active.LastTaskID
		}
	}
	return def.Tasks[0].ID
}

func printTask(nav *engine.NavigationContext, sess *engine.Session) {
	task := nav.Current
	fmt.Printf("\n[%d/%d] %s\n", task.Order+1, sess.Definition().TaskCount(), task.Text)
	if task.ImageLink != nil {
		fmt.Printf("  image: %s\n", *task.ImageLink)
	}
	switch task.AnswerKind {
	case model.AnswerNumber:
		fmt.Print("  numeric answer> ")
	case model.AnswerFile:
		fmt.Print("  upload id> ")
	default:
		fmt.Print("  answer> ")
	}
}

func confirm(in *bufio.Scanner, prompt string) bool {
	fmt.Print(prompt)
	if !in.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(in.Text()), "y")
}

func printResults(def *model.TestDefinition, completed *model.CompletedAttempt) {
	fmt.Printf("\n=== Results: %.0f%% — ", completed.Percentage*100)
	if completed.Passed {
		fmt.Println("passed ===")
	} else {
		fmt.Println("not passed ===")
	}
	for _, task := range def.Tasks {
		graded, ok := completed.Answers[task.ID]
		if !ok {
			fmt.Printf("%d. (no answer)\n", task.Order+1)
			continue
		}
		mark := "✗"
		if graded.IsCorrect {
			mark = "✓"
		}
		fmt.Printf("%d. %s your answer: %s", task.Order+1, mark, graded.SubmittedValue)
		if !graded.IsCorrect {
			fmt.Printf(" (correct: %s)", graded.CorrectValue)
		}
		fmt.Println()
		if graded.SolutionText != nil {
			fmt.Printf("   solution: %s\n", *graded.SolutionText)
		}
	}
}
