// Package cmd provides CLI commands for the transformctl tool.
//
// Commands are built as *cli.Command values (urfave/cli/v3) and registered in
// the "commands" fx group by Module. Run assembles them under a root command
// whose global flags describe how to reach the transformations API.
//
// # Available Commands
//
//   - deploy: make the remote project match a directory of manifests
//   - delete: delete a single transformation by id or external id
//
// # Global Options
//
// Every global flag also reads a TRANSFORMATIONS_ variable, first from the
// process environment and then from a .env file in the working directory:
//   - --cluster, --cdf-project-name, --timeout
//   - --api-key, or --client-id, --client-secret and --token-url for OAuth2
//   - --scopes and --audience to tune the OAuth2 token request
//   - --help, -h: Display command help
package cmd
