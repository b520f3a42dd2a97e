package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type urlFlags struct {
	width      int
	height     int
	format     string
	background string
	dpr        float64
	version    string
	direct     bool
}

// newURLCmd generates one URL without starting a server:
//
//	chartmcp url chart.json --width 800 --format svg
//	echo '{"type":"bar",...}' | chartmcp url
func newURLCmd() *cobra.Command {
	var f urlFlags

	cmd := &cobra.Command{
		Use:   "url [config.json|-]",
		Short: "Print the URL for a chart config read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}

			raw, err := readConfigInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			opts, err := f.options(cmd)
			if err != nil {
				return err
			}

			client, err := cfg.NewChartClient()
			if err != nil {
				return err
			}
			builder := NewBuilder(client, newLogger(cmd.ErrOrStderr(), cfg.LogLevel))

			var res Result
			if f.direct {
				res = builder.CreateDirectChartURL(cmd.Context(), decodeConfigInput(raw), opts)
			} else {
				res = builder.CreateChartURL(cmd.Context(), decodeConfigInput(raw), opts)
			}

			if res.IsErr() {
				fmt.Fprintln(cmd.ErrOrStderr(), color.RedString(res.String()))
				return res.Err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgGreen).Sprint(res.URL))
			return nil
		},
	}

	cmd.Flags().IntVar(&f.width, "width", 0, "Image width in pixels")
	cmd.Flags().IntVar(&f.height, "height", 0, "Image height in pixels")
	cmd.Flags().StringVar(&f.format, "format", "", "Output format: "+formatList())
	cmd.Flags().StringVar(&f.background, "background", "", "Background color")
	cmd.Flags().Float64Var(&f.dpr, "dpr", 0, "Device pixel ratio")
	cmd.Flags().StringVar(&f.version, "chartjs-version", "", "Chart.js version")
	cmd.Flags().BoolVar(&f.direct, "direct", false, "Encode the config in the URL instead of requesting a short URL")
	return cmd
}

// options only sets fields for flags given on the command line
func (f *urlFlags) options(cmd *cobra.Command) (RenderOptions, error) {
	var opts RenderOptions
	flags := cmd.Flags()
	if flags.Changed("width") {
		opts.Width = &f.width
	}
	if flags.Changed("height") {
		opts.Height = &f.height
	}
	if flags.Changed("format") {
		format, err := ParseFormat(f.format)
		if err != nil {
			return opts, err
		}
		opts.Format = &format
	}
	if flags.Changed("background") {
		opts.BackgroundColor = &f.background
	}
	if flags.Changed("dpr") {
		opts.DevicePixelRatio = &f.dpr
	}
	if flags.Changed("chartjs-version") {
		opts.Version = &f.version
	}
	return opts, nil
}

func readConfigInput(stdin io.Reader, args []string) (string, error) {
	var (
		b   []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read config: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", errors.New("config input is empty")
	}
	return string(b), nil
}

// decodeConfigInput decodes JSON input; anything else is passed on as a raw
// string config.
func decodeConfigInput(raw string) any {
	v, err := decodeJSON(raw)
	if err != nil {
		return raw
	}
	return v
}
