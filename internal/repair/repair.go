// Package repair rewrites a chat export: unnamed chats get
// resolver-suggested names, unknown senders above a confidence
// threshold get resolved names, and every message gains a destination
// annotation. Unrecognized export fields round-trip untouched, so the
// repaired file stays loadable by other tools.
package repair

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/progress"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
)

// DefaultThreshold is the minimum resolution confidence accepted for
// sender rewrites.
const DefaultThreshold = 50

// Options configures a repair run.
type Options struct {
	// ArchivePath is where the archive was loaded from. Needed for the
	// backup and as the default output path.
	ArchivePath string
	// OutputPath overrides where the repaired archive is written.
	OutputPath string
	// Threshold is the minimum confidence for sender rewrites.
	Threshold int
	// Backup writes ArchivePath + ".bak" before any change.
	Backup bool
	// DryRun computes everything but writes no files.
	DryRun bool
}

// Stats counts what a repair run changed.
type Stats struct {
	TotalChats        int `json:"total_chats"`
	RenamedChats      int `json:"renamed_chats"`
	TotalMessages     int `json:"total_messages"`
	RenamedSenders    int `json:"renamed_senders"`
	DestinationsAdded int `json:"destinations_added"`
}

// Improvement returns the share of messages whose sender was resolved,
// in percent.
func (s Stats) Improvement() float64 {
	if s.TotalMessages == 0 {
		return 0
	}
	return float64(s.RenamedSenders) / float64(s.TotalMessages) * 100
}

// ChatRename records one applied chat rename.
type ChatRename struct {
	ChatID string `json:"chat_id"`
	Name   string `json:"name"`
}

// Report is the outcome of one repair run.
type Report struct {
	Stats      Stats        `json:"stats"`
	Renames    []ChatRename `json:"renames,omitempty"`
	BackupPath string       `json:"backup_path,omitempty"`
	OutputPath string       `json:"output_path,omitempty"`
	DryRun     bool         `json:"dry_run"`
}

// Runner applies the repair passes with one resolver.
type Runner struct {
	resolver *resolver.Resolver
	reporter progress.Reporter
}

// New creates a Runner. The resolver must have been built over the same
// archive that Run receives, or contextual resolution will miss.
func New(res *resolver.Resolver) *Runner {
	return &Runner{resolver: res}
}

// SetReporter sets the progress reporter used during the message pass.
func (r *Runner) SetReporter(rep progress.Reporter) {
	r.reporter = rep
}

// Run repairs the archive in memory and, unless DryRun is set, writes
// it back out. Chat renames happen before the message pass so
// destination annotations carry the new names.
func (r *Runner) Run(arc *archive.Archive, opts Options) (*Report, error) {
	report := &Report{DryRun: opts.DryRun}
	report.Stats.TotalChats = arc.Len()
	report.Stats.TotalMessages = arc.TotalMessages()

	if opts.Backup && !opts.DryRun {
		if opts.ArchivePath == "" {
			return nil, fmt.Errorf("backup requested but no archive path given")
		}
		backup, err := backupFile(opts.ArchivePath)
		if err != nil {
			return nil, err
		}
		report.BackupPath = backup
	}

	r.renameChats(arc, report)
	r.repairMessages(arc, report, opts.Threshold)

	if !opts.DryRun {
		out := opts.OutputPath
		if out == "" {
			out = opts.ArchivePath
		}
		if out == "" {
			return nil, fmt.Errorf("no output path for repaired archive")
		}
		if err := arc.Save(out); err != nil {
			return nil, err
		}
		report.OutputPath = out
	}

	return report, nil
}

// renameChats fills in names for chats the exporter left unnamed.
// Suggestions that are just the bare id dressed up are skipped.
func (r *Runner) renameChats(arc *archive.Archive, report *Report) {
	for _, chatID := range arc.ChatIDs() {
		chat, ok := arc.Chat(chatID)
		if !ok || chat.HasName() {
			continue
		}

		suggested := r.resolver.SuggestChatName(chatID)
		if suggested == "" || suggested == chatID || suggested == "Group "+chatID {
			continue
		}

		chat.Name = suggested
		report.Stats.RenamedChats++
		report.Renames = append(report.Renames, ChatRename{ChatID: chatID, Name: suggested})
	}
}

// repairMessages resolves unknown senders and stamps destination info
// on every message.
func (r *Runner) repairMessages(arc *archive.Archive, report *Report, threshold int) {
	rep := r.reporter
	if rep == nil {
		rep = progress.Silent()
	}
	rep.Start(report.Stats.TotalMessages, "Repairing messages")
	defer rep.Finish()

	fallback := r.resolver.Fallback()
	seen := 0
	for _, chatID := range arc.ChatIDs() {
		chat, _ := arc.Chat(chatID)
		label := chat.Name
		if !chat.HasName() {
			label = chatID
		}

		for _, msgID := range chat.MessageIDs() {
			msg, _ := chat.Message(msgID)
			seen++

			if msg.SenderID != "" && (msg.Sender == "" || msg.Sender == fallback) {
				res := r.resolver.Resolve(msg.SenderID, resolver.Context{ChatID: chatID, MessageID: msgID})
				if res.Confidence >= threshold {
					msg.Sender = res.DisplayName
					msg.ResolvedSender = res.DisplayName
					msg.ResolutionConfidence = res.Confidence
					msg.ResolutionSource = string(res.Source)
					report.Stats.RenamedSenders++
				}
			}

			dest := r.resolver.MessageDestination(msg, msgID, chatID)
			direction := "incoming"
			if dest.IsOutgoing {
				direction = "outgoing"
			}
			msg.Destination = &archive.DestinationInfo{
				ChatName:      dest.Chat.DisplayName,
				ChatType:      string(dest.Chat.Type),
				RecipientName: dest.Recipient.DisplayName,
				Direction:     direction,
			}
			report.Stats.DestinationsAdded++

			rep.Update(seen, label)
		}
	}
}

// backupFile copies the archive aside before it is overwritten.
func backupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading archive for backup: %w", err)
	}
	backup := path + ".bak"
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", backup, err)
	}
	return backup, nil
}
