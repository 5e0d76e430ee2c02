// Package console 实现交互式的读取-分析-输出循环。
package console

import (
	"bufio"
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"CyberGuard/internal/analyzer"
	"CyberGuard/internal/incident"
	"CyberGuard/internal/persona"
)

const (
	quitCommand = "quit"
	separator   = "--------------------------------------------------"

	warningLine       = "Warning: Possible scam detected! Alerting police..."
	investigationLine = "Investigation: Check @%s’s post history."

	incidentsHeader = "Recent incidents:"
	noIncidentsLine = "No incidents recorded."
)

// Analyst 分析一行输入。
type Analyst interface {
	Analyze(ctx context.Context, raw string) (*analyzer.Report, error)
}

// Run 打印欢迎语后逐行读取输入并输出分析结果。
//
// 输入 quit（不区分大小写）或读到输入结尾时打印告别语并返回 nil；
// 分析失败时直接返回错误，由调用方终止进程。
func Run(ctx context.Context, a Analyst, p persona.Persona, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	fmt.Fprintln(out, p.Banner)

	for {
		fmt.Fprint(out, p.Prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !stdErrors.Is(err, io.EOF) {
			return fmt.Errorf("读取输入失败: %w", err)
		}
		eof := err != nil
		if eof && line == "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, p.Farewell)
			return nil
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if strings.ToLower(line) == quitCommand {
			fmt.Fprintln(out, p.Farewell)
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		report, err := a.Analyze(ctx, line)
		if err != nil {
			return err
		}
		PrintReport(out, p, report)
	}
}

// PrintReport 按人设格式输出一次分析结果。
func PrintReport(out io.Writer, p persona.Persona, r *analyzer.Report) {
	fmt.Fprintln(out, p.ReplyLabel, r.Reply)
	if p.WarnOnSuspicious && r.Suspicious {
		fmt.Fprintln(out, warningLine)
		if r.Author != "" {
			fmt.Fprintf(out, investigationLine+"\n", r.Author)
		}
	}
	if p.Separator {
		fmt.Fprintln(out, separator)
	}
}

// PrintIncidents 输出最近记录的线索，时间为 UTC。
func PrintIncidents(out io.Writer, list []incident.Incident) {
	if len(list) == 0 {
		fmt.Fprintln(out, noIncidentsLine)
		return
	}
	fmt.Fprintln(out, incidentsHeader)
	for _, inc := range list {
		ts := time.Unix(inc.CreatedAt, 0).UTC().Format(time.RFC3339)
		fmt.Fprintf(out, "%s  %-6s %-7s %s\n", ts, inc.Kind, inc.Source, inc.Indicator)
	}
}
