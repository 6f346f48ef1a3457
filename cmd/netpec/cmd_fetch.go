package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netpec/pkg/audit"
	"github.com/newtron-network/netpec/pkg/cli"
	"github.com/newtron-network/netpec/pkg/export"
	"github.com/newtron-network/netpec/pkg/fetch"
)

var (
	fetchUser    string
	fetchPort    int
	fetchCommand string
	fetchTimeout time.Duration
	fetchDir     string
	fetchAnalyze bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <host>...",
	Short: "Download running configurations over SSH",
	Long: `Download the running configuration of each host over SSH and save it as
<dir>/<host>.cfg. Hosts are fetched concurrently.

The SSH user comes from --user, the ssh_user setting, or NETPEC_SSH_USER;
the password from NETPEC_SSH_PASSWORD (or a .env file), else it is asked
for once on an interactive terminal.

Examples:
  netpec fetch r1 r2 r3 -o configs/
  netpec fetch r1,r2,r3 -o configs/
  netpec fetch 10.0.0.1 --command "show running-config | exclude !" --analyze`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := os.MkdirAll(fetchDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		hosts := splitHosts(args)
		paths := make([]string, len(hosts))
		errs := make([]error, len(hosts))
		var wg sync.WaitGroup
		for i, host := range hosts {
			i, host := i, host
			wg.Add(1)
			go func() {
				defer wg.Done()
				paths[i], errs[i] = fetchOne(ctx, host)
			}()
		}
		wg.Wait()

		out := cmd.OutOrStdout()
		var fetched []string
		var failed int
		for i, host := range hosts {
			if errs[i] != nil {
				failed++
				fmt.Fprintf(out, "%s %s %v\n", cli.DotPad(host, 20), cli.Red("FAILED"), errs[i])
				continue
			}
			fetched = append(fetched, paths[i])
			fmt.Fprintf(out, "%s %s %s\n", cli.DotPad(host, 20), cli.Green("ok"), paths[i])
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d hosts failed", failed, len(hosts))
		}

		if !fetchAnalyze {
			return nil
		}
		result, err := analyzeArgs(fetched)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		return export.Write(out, app.settings.GetFormat(), result.PECs)
	},
}

// fetchOne saves the running configuration of host and records an audit event
func fetchOne(ctx context.Context, host string) (string, error) {
	c := sshClient(host, fetchUser, fetchPort, fetchCommand, fetchTimeout)
	event := audit.NewEvent(currentUser(), audit.EventTypeFetch).WithRouters(host).WithSource(c.Addr())

	path, err := func() (string, error) {
		text, err := c.RunningConfig(ctx)
		if err != nil {
			return "", err
		}
		path := filepath.Join(fetchDir, host+".cfg")
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			return "", fmt.Errorf("saving configuration: %w", err)
		}
		return path, nil
	}()
	logAudit(event.Finish(err))
	return path, err
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchUser, "user", "u", "", "SSH user")
	fetchCmd.Flags().IntVarP(&fetchPort, "port", "p", fetch.DefaultPort, "SSH port")
	fetchCmd.Flags().StringVar(&fetchCommand, "command", fetch.DefaultCommand, "Command that prints the configuration")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", fetch.DefaultTimeout, "Per-host timeout")
	fetchCmd.Flags().StringVarP(&fetchDir, "output", "o", ".", "Directory to save configurations in")
	fetchCmd.Flags().BoolVar(&fetchAnalyze, "analyze", false, "Analyze the fetched configurations")
}
