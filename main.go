package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"media-translator/internal/logger"
)

//go:embed all:frontend/dist
var assets embed.FS

// Command line flags
var (
	cliFlag        = flag.Bool("cli", false, "Run in CLI mode without GUI")
	transcribeFlag = flag.String("transcribe", "", "Media file to transcribe")
	translateFlag  = flag.String("translate", "", "Media file to translate")
	detectFlag     = flag.String("detect", "", "Media file to detect the spoken language of")
	languageFlag   = flag.String("language", "", "Language code for transcription")
	sourceFlag     = flag.String("source", "", "Source language code for translation")
	targetFlag     = flag.String("target", "", "Target language code for translation")
	modelFlag      = flag.String("model", "", "Model to use")
	storeFlag      = flag.String("store", "", "Path to the settings store file")
)

// printHelp displays the help information for command line usage.
func printHelp() {
	fmt.Println("Media Translator - transcribe, translate and analyze media files")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  media-translator [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --transcribe <PATH>  Transcribe a media file")
	fmt.Println("  --translate <PATH>   Translate a media file")
	fmt.Println("  --detect <PATH>      Detect the spoken language of a media file")
	fmt.Println("  --language <CODE>    Language code for transcription")
	fmt.Println("  --source <CODE>      Source language code for translation")
	fmt.Println("  --target <CODE>      Target language code for translation")
	fmt.Println("  --model <NAME>       Model to use")
	fmt.Println("  --store <PATH>       Settings store file (default: platform config dir)")
	fmt.Println("  --cli                Run in CLI mode without GUI")
	fmt.Println("  -h, --help           Show this help")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  media-translator                                   # start the GUI")
	fmt.Println("  media-translator --cli --transcribe talk.mp3 --language en")
	fmt.Println("  media-translator --cli --translate talk.mp3 --target french")
	fmt.Println("  media-translator --cli --detect clip.wav")
	fmt.Println()
	fmt.Println("Credentials come from saved settings or the MEDIA_TRANSLATOR_API_KEY")
	fmt.Println("environment variable.")
}

// cliJob returns the single job requested on the command line, or an
// error when more than one is given.
func cliJob() (kind, path string, err error) {
	count := 0
	if *transcribeFlag != "" {
		count++
		kind, path = "transcribe", *transcribeFlag
	}
	if *translateFlag != "" {
		count++
		kind, path = "translate", *translateFlag
	}
	if *detectFlag != "" {
		count++
		kind, path = "detect", *detectFlag
	}
	if count > 1 {
		return "", "", fmt.Errorf("only one of --transcribe, --translate or --detect may be given")
	}
	return kind, path, nil
}

func newApp() (*App, error) {
	if *storeFlag != "" {
		return NewAppWithStorePath(*storeFlag)
	}
	return NewApp()
}

// runCLI executes one job without a GUI and prints the result as JSON.
func runCLI(kind, path string) int {
	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	var result BindingResult
	switch kind {
	case "transcribe":
		result = app.Transcribe(path, *languageFlag, *modelFlag)
	case "translate":
		result = app.Translate(path, *sourceFlag, *targetFlag, *modelFlag)
	case "detect":
		result = app.DetectLanguage(path)
	}

	if !result.Success {
		fmt.Fprintf(os.Stderr, "error [%s]: %s\n", result.Error.Code, result.Error.Message)
		return 1
	}

	out, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if err := logger.Init(nil); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging unavailable: %v\n", err)
	}

	kind, path, err := cliJob()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		printHelp()
		os.Exit(1)
	}

	if *cliFlag || kind != "" {
		if kind == "" {
			fmt.Fprintln(os.Stderr, "error: --cli requires --transcribe, --translate or --detect")
			os.Exit(1)
		}
		os.Exit(runCLI(kind, path))
	}

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	app.SetWailsRuntime(true)

	err = wails.Run(&options.App{
		Title:  "Media Translator",
		Width:  1100,
		Height: 760,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 24, G: 26, B: 32, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		OnBeforeClose: func(ctx context.Context) (prevent bool) {
			if !app.isBusy() {
				return false
			}
			choice, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
				Type:          runtime.QuestionDialog,
				Title:         "Job in progress",
				Message:       "A job is still running. Quit anyway?\nThe current job will be cancelled.",
				Buttons:       []string{"Cancel", "Quit"},
				DefaultButton: "Cancel",
				CancelButton:  "Cancel",
			})
			if err != nil {
				return false
			}
			if choice == "Cancel" {
				return true
			}
			app.CancelJob()
			return false
		},
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logger.Error("application exited with error", err)
	}
}
