package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli — общие флаги. Логин и пароль можно задать через KYEFA_USER / KYEFA_PASSWORD.
type cli struct {
	v *viper.Viper
}

func (c *cli) user() string     { return c.v.GetString("user") }
func (c *cli) password() string { return c.v.GetString("password") }

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "kyefa",
		Short:         "Kyefa school fee client",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := root.PersistentFlags()
	pf.String("user", "", "username (env KYEFA_USER)")
	pf.String("password", "", "password (env KYEFA_PASSWORD)")
	_ = c.v.BindPFlag("user", pf.Lookup("user"))
	_ = c.v.BindPFlag("password", pf.Lookup("password"))
	_ = c.v.BindEnv("user", "KYEFA_USER")
	_ = c.v.BindEnv("password", "KYEFA_PASSWORD")

	root.AddCommand(
		newStudentsCmd(c),
		newTemplateCmd(c),
		newImportCmd(c),
		newReportCmd(c),
		newServeCmd(c),
	)
	return root
}
