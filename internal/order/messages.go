package order

import (
	"fmt"
	"strconv"
)

const (
	msgWelcome       = "Send me the files you want to print, and I will guide you through the rest. When you are done, type /done."
	msgFileReceived  = "File received. Send more files or type /done to proceed."
	msgNoFiles       = "No files received. Please send files first."
	msgNoSession     = "There is no order in progress. Send /start to begin."
	msgCancelled     = "Operation cancelled."
	msgDeclined      = "Process cancelled."
	msgProcessing    = "Files are being processed and forwarded."
	msgUseButtons    = "Unexpected input. Please choose one of the options above."
	msgSendDocuments = "Unexpected input. Send a document or type /done."
)

func printTypePrompt(s *Session) Prompt {
	return Prompt{
		Text: fileHeader(s) + "Select Print Type:",
		Key:  KeyPrintType,
		Options: []Option{
			{Label: "Color", Value: "color"},
			{Label: "B&W", Value: "b&w"},
		},
		PerRow: 2,
	}
}

func quantityPrompt(s *Session, max int) Prompt {
	opts := make([]Option, 0, max)
	for i := 1; i <= max; i++ {
		label := strconv.Itoa(i) + " copies"
		if i == 1 {
			label = "1 copy"
		}
		opts = append(opts, Option{Label: label, Value: strconv.Itoa(i)})
	}
	return Prompt{Text: fileHeader(s) + "Select Quantity:", Key: KeyQuantity, Options: opts, PerRow: 5}
}

func sidesPrompt(s *Session) Prompt {
	return Prompt{
		Text: fileHeader(s) + "Select Sides:",
		Key:  KeySides,
		Options: []Option{
			{Label: "One Sided", Value: "one_sided"},
			{Label: "Two Sided", Value: "two_sided"},
		},
		PerRow: 2,
	}
}

func confirmPrompt(q Quote) Prompt {
	return Prompt{
		Text: fmt.Sprintf("The total cost is %d units for %d printed pages. Do you want to proceed?", q.TotalCost, q.TotalPages),
		Key:  KeyConfirm,
		Options: []Option{
			{Label: "Yes", Value: "yes"},
			{Label: "No", Value: "no"},
		},
		PerRow: 1,
	}
}

func fileHeader(s *Session) string {
	f, ok := s.Current()
	if !ok || len(s.Files) < 2 {
		return ""
	}
	return fmt.Sprintf("File %d of %d: %s\n", s.FileIndex+1, len(s.Files), f.Name)
}
