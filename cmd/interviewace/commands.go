package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/interviewace/interviewace/internal/api"
	"github.com/interviewace/interviewace/internal/config"
	"github.com/interviewace/interviewace/internal/provider"
	"github.com/interviewace/interviewace/internal/storage"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a message to the chat assistant",
	Long: `Send a message to the chat assistant and print its reply.

Without --agent a new assistant is created first and its id printed, so
later messages can reuse it.

Examples:
  interviewace chat "How should I prepare for a system design interview?"
  interviewace chat --agent agent_123 --session s1 "And for behavioral rounds?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentID, _ := cmd.Flags().GetString("agent")
		sessionID, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), client, os.Stdout, agentID, sessionID, strings.Join(args, " "))
	},
}

func init() {
	chatCmd.Flags().String("agent", "", "agent id (default: create a new assistant)")
	chatCmd.Flags().String("session", "", "conversation session id")
}

func runChat(ctx context.Context, client *apiClient, out io.Writer, agentID, sessionID, message string) error {
	if agentID == "" {
		resp, err := client.post(ctx, "/api/chat-agent", api.ChatAgentRequest{Action: api.ActionCreateAgent})
		if err != nil {
			return err
		}
		var created struct {
			AgentID string `json:"agentId"`
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}
		agentID = created.AgentID
		if provider.IsMockID(agentID) {
			printWarning("Provider unavailable; using placeholder agent %s", agentID)
		} else {
			printSuccess("Created agent %s", agentID)
		}
	}

	resp, err := client.post(ctx, "/api/chat-agent", api.ChatAgentRequest{
		Action:    api.ActionSendMessage,
		Message:   message,
		AgentID:   agentID,
		SessionID: sessionID,
	})
	if err != nil {
		return err
	}
	var result struct {
		Response provider.ChatReply `json:"response"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return err
	}
	fmt.Fprintln(out, result.Response.Message)
	return nil
}

// --- call ---

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Start a voice screening call",
	Long: `Start a voice screening call.

Examples:
  interviewace call --phone 9876543210 --type technical
  interviewace call --phone +14155550100 --type leadership --resume ./resume.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		phoneNumber, _ := cmd.Flags().GetString("phone")
		interviewType, _ := cmd.Flags().GetString("type")
		userContext, _ := cmd.Flags().GetString("context")
		resumePath, _ := cmd.Flags().GetString("resume")

		if phoneNumber == "" {
			return fmt.Errorf("--phone is required")
		}

		req := api.VoiceInterviewRequest{
			PhoneNumber:   phoneNumber,
			InterviewType: interviewType,
			UserContext:   userContext,
		}
		if resumePath != "" {
			data, err := os.ReadFile(resumePath)
			if err != nil {
				return fmt.Errorf("reading resume: %w", err)
			}
			req.ResumeData = base64.StdEncoding.EncodeToString(data)
			req.ResumeFileName = filepath.Base(resumePath)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runCall(cmd.Context(), client, os.Stdout, req)
	},
}

func init() {
	callCmd.Flags().String("phone", "", "phone number to call")
	callCmd.Flags().String("type", provider.InterviewGeneral,
		"interview type ("+strings.Join(provider.InterviewTypes(), ", ")+")")
	callCmd.Flags().String("context", "", "background for the interviewer")
	callCmd.Flags().String("resume", "", "resume file to attach")
}

func runCall(ctx context.Context, client *apiClient, out io.Writer, req api.VoiceInterviewRequest) error {
	printStep("Dispatching %s screening call...", req.InterviewType)

	resp, err := client.post(ctx, "/api/voice-interview", req)
	if err != nil {
		return err
	}
	var result map[string]any
	if err := decodeJSON(resp, &result); err != nil {
		return err
	}

	requestID, _ := result["requestId"].(string)
	if provider.IsMockID(requestID) {
		printWarning("Provider unavailable; call recorded as %s (mock)", requestID)
	} else {
		printSuccess("Call dispatched")
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(b))
	return nil
}

// --- diagnose ---

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Probe the provider's listing and dispatch endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runDiagnose(cmd.Context(), client, os.Stdout)
	},
}

func runDiagnose(ctx context.Context, client *apiClient, out io.Writer) error {
	resp, err := client.get(ctx, "/api/voice-interview/test")
	if err != nil {
		return err
	}
	var d provider.Diagnosis
	if err := decodeJSON(resp, &d); err != nil {
		return err
	}

	printStatus("Provider", "%s", d.BaseURL)
	printStatus("API key", "%s", d.APIKey)

	paths := make([]string, 0, len(d.Results))
	for p := range d.Results {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSTATUS\tRESULT")
	for _, p := range paths {
		r := d.Results[p]
		switch {
		case r.Error != "":
			fmt.Fprintf(tw, "%s\t-\t%s\n", p, colorize(color.FgRed, r.Error))
		case r.OK:
			fmt.Fprintf(tw, "%s\t%d\t%s\n", p, r.Status, colorize(color.FgGreen, r.StatusText))
		default:
			fmt.Fprintf(tw, "%s\t%d\t%s\n", p, r.Status, colorize(color.FgYellow, r.StatusText))
		}
	}
	return tw.Flush()
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded voice interviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runHistory(cmd.Context(), client, os.Stdout, limit, offset)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded interview as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/api/interviews/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var iv storage.Interview
		if err := decodeJSON(resp, &iv); err != nil {
			return err
		}
		b, err := json.MarshalIndent(iv, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of interviews")
	historyCmd.Flags().Int("offset", 0, "number of interviews to skip")
	historyCmd.AddCommand(historyShowCmd)
}

func runHistory(ctx context.Context, client *apiClient, out io.Writer, limit, offset int) error {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	resp, err := client.get(ctx, "/api/interviews?"+q.Encode())
	if err != nil {
		return err
	}
	var interviews []storage.Interview
	if err := decodeJSON(resp, &interviews); err != nil {
		return err
	}
	if len(interviews) == 0 {
		printWarning("No interviews recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tTYPE\tPHONE\tAGENT\tCALL")
	for _, iv := range interviews {
		call := iv.CallStatus
		if iv.Mock {
			call = colorize(color.FgYellow, "mock")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			iv.ID, iv.CreatedAt.Local().Format("2006-01-02 15:04"), iv.InterviewType, iv.Phone, iv.AgentID, call)
	}
	return tw.Flush()
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show interview and chat totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runStats(cmd.Context(), client)
	},
}

func runStats(ctx context.Context, client *apiClient) error {
	resp, err := client.get(ctx, "/api/stats")
	if err != nil {
		return err
	}
	var st storage.Stats
	if err := decodeJSON(resp, &st); err != nil {
		return err
	}

	printStatus("Interviews", "%d (%d live, %d mock)", st.Interviews, st.LiveCalls, st.MockCalls)
	types := make([]string, 0, len(st.ByType))
	for t := range st.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		printStatus("  "+t, "%d", st.ByType[t])
	}
	printStatus("Chat messages", "%d (%d answered locally)", st.ChatMessages, st.FallbackReplies)
	return nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s  %s\n", colorize(color.Bold, k.Key), k.Value, colorize(color.Faint, "$"+k.EnvVar))
		}
		fmt.Printf("\n  config file: %s\n", config.ConfigFilePath())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys:\n  " + strings.Join(config.ValidKeys(), "\n  "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		if key == "provider.api_key" {
			printSuccess("Stored %s", key)
		} else {
			printSuccess("Set %s = %s", key, value)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
