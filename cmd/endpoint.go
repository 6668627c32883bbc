package cmd

import (
	"fmt"
	"ftpsched/internal/model"
	"ftpsched/internal/pathtmpl"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Manage remote endpoints",
}

var endpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		var endpoints []model.Endpoint
		if err := request(http.MethodGet, "/endpoints", nil, &endpoints); err != nil {
			return err
		}

		if len(endpoints) == 0 {
			fmt.Println("no endpoints configured")
			return nil
		}

		fmt.Printf("%-36s %-3s %-5s %-25s %-25s %s\n", "ID", "ON", "PROTO", "ADDR", "REMOTE", "LOCAL")
		for _, ep := range endpoints {
			on := "no"
			if ep.Enabled {
				on = "yes"
			}
			fmt.Printf("%-36s %-3s %-5s %-25s %-25s %s\n", ep.ID, on, ep.Scheme(), ep.Addr(), ep.RemotePath, ep.LocalPath)
		}

		return nil
	},
}

var endpointAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an endpoint with default settings",
	Long:  "Add an endpoint (127.0.0.1:21, remote path /, enabled). Change it with 'ftpsched endpoint set'.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var ep model.Endpoint
		if err := request(http.MethodPost, "/endpoints", nil, &ep); err != nil {
			return err
		}

		fmt.Printf("endpoint added: id=%s addr=%s local=%s\n", ep.ID, ep.Addr(), ep.LocalPath)
		return nil
	},
}

var endpointRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove an endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := request(http.MethodDelete, "/endpoints/"+args[0], nil, nil); err != nil {
			return err
		}

		fmt.Printf("endpoint %s removed\n", args[0])
		return nil
	},
}

var endpointSetFlags struct {
	enabled  bool
	protocol string
	host     string
	port     int
	remote   string
	local    string
}

var endpointSetCmd = &cobra.Command{
	Use:   "set [id]",
	Short: "Change endpoint settings",
	Long: "Change endpoint settings. Remote and local paths may contain the placeholders " +
		strings.Join(pathtmpl.Placeholders(), ", ") + ", expanded on the day of the run.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		body := map[string]any{}
		if flags.Changed("enabled") {
			body["enabled"] = endpointSetFlags.enabled
		}
		if flags.Changed("protocol") {
			body["protocol"] = endpointSetFlags.protocol
		}
		if flags.Changed("host") {
			body["host"] = endpointSetFlags.host
		}
		if flags.Changed("port") {
			body["port"] = endpointSetFlags.port
		}
		if flags.Changed("remote") {
			body["remote_path"] = endpointSetFlags.remote
		}
		if flags.Changed("local") {
			body["local_path"] = endpointSetFlags.local
		}

		if len(body) == 0 {
			return fmt.Errorf("nothing to change, see --help")
		}

		var ep model.Endpoint
		if err := request(http.MethodPatch, "/endpoints/"+args[0], body, &ep); err != nil {
			return err
		}

		fmt.Printf("endpoint %s updated: %s://%s %s -> %s\n", ep.ID, ep.Scheme(), ep.Addr(), ep.RemotePath, ep.LocalPath)
		return nil
	},
}

func init() {
	f := endpointSetCmd.Flags()
	f.BoolVar(&endpointSetFlags.enabled, "enabled", true, "include the endpoint in runs")
	f.StringVar(&endpointSetFlags.protocol, "protocol", "", "ftp or sftp")
	f.StringVar(&endpointSetFlags.host, "host", "", "IP address or hostname")
	f.IntVar(&endpointSetFlags.port, "port", 0, "port (1-65535)")
	f.StringVar(&endpointSetFlags.remote, "remote", "", "remote path, must start with /")
	f.StringVar(&endpointSetFlags.local, "local", "", "local destination directory")

	endpointCmd.AddCommand(endpointListCmd, endpointAddCmd, endpointRemoveCmd, endpointSetCmd)
	rootCmd.AddCommand(endpointCmd)
}
