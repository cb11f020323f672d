package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nadzzz/voxmate/internal/assistant"
	"github.com/nadzzz/voxmate/internal/config"
)

var (
	userLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	botLabel  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	hintStyle = lipgloss.NewStyle().Faint(true)
)

func askCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <utterance...>",
		Short: "Answer a single utterance and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAssistant(*configPath)
			if err != nil {
				return err
			}
			reply := a.Process(assistant.Session{}, strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return nil
		},
	}
}

func chatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to voxmate line by line on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadAssistant(*configPath)
			if err != nil {
				return err
			}
			return chat(cmd.InOrStdin(), cmd.OutOrStdout(), assistant.NewConversation(a), isTerminal(os.Stdout))
		},
	}
}

func loadAssistant(configPath string) (*assistant.Assistant, error) {
	quietLogging()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return newAssistant(cfg.Assistant)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// chat runs the interactive loop until in is exhausted. When styled, the
// transcript is rendered with colored speaker labels and a prompt.
func chat(in io.Reader, out io.Writer, conv *assistant.Conversation, styled bool) error {
	if styled {
		fmt.Fprintln(out, hintStyle.Render(`Escribe "ayuda" para ver qué puedo hacer. Ctrl+D para salir.`))
	}

	scanner := bufio.NewScanner(in)
	for {
		if styled {
			fmt.Fprint(out, userLabel.Render("tú")+" > ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply := conv.Process(line)
		if styled {
			fmt.Fprintln(out, botLabel.Render(assistant.Name)+"   "+reply)
		} else {
			fmt.Fprintln(out, reply)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
