package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/telnetscriptpro/telnetscriptpro/pkg/logger"
	"github.com/telnetscriptpro/telnetscriptpro/pkg/sshstream"
	"github.com/telnetscriptpro/telnetscriptpro/pkg/telnet"
)

// scriptFile 脚本文件结构（YAML）
type scriptFile struct {
	Host     string     `mapstructure:"host"`
	Port     int        `mapstructure:"port"`
	Protocol string     `mapstructure:"protocol"`
	Charset  string     `mapstructure:"charset"`
	Debug    bool       `mapstructure:"debug"`
	Login    *loginSpec `mapstructure:"login"`
	Steps    []stepSpec `mapstructure:"steps"`
}

type loginSpec struct {
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UsernamePrompt string `mapstructure:"username_prompt"`
	PasswordPrompt string `mapstructure:"password_prompt"`
	SuccessPattern string `mapstructure:"success_pattern"`
}

type stepSpec struct {
	Command    string    `mapstructure:"command"`
	Expect     string    `mapstructure:"expect"`
	Timeout    float64   `mapstructure:"timeout"`
	Delay      float64   `mapstructure:"delay"`
	Condition  *condSpec `mapstructure:"condition"`
	StopOnFail bool      `mapstructure:"stop_on_fail"`
}

type condSpec struct {
	Type    string `mapstructure:"type"`
	Pattern string `mapstructure:"pattern"`
}

func main() {
	var scriptPath string
	flag.StringVar(&scriptPath, "f", "script.yaml", "脚本文件路径")
	flag.Parse()

	script, err := loadScript(scriptPath)
	if err != nil {
		fmt.Printf("Failed to load script: %v\n", err)
		os.Exit(1)
	}

	level := "info"
	if script.Debug {
		level = "debug"
	}
	_ = logger.Init(logger.Config{Level: level, Format: "text", Output: "console"})

	builder := telnet.NewScriptBuilder(&telnet.Config{
		Host:    script.Host,
		Port:    script.Port,
		Charset: script.Charset,
		Debug:   script.Debug,
	})

	if script.Protocol == "ssh" {
		if script.Login == nil {
			fmt.Println("ssh protocol requires login credentials")
			os.Exit(1)
		}
		builder.WithDialer(sshstream.Dialer(&sshstream.ConnectionInfo{
			Username: script.Login.Username,
			Password: script.Login.Password,
		}))
	} else if script.Login != nil {
		builder.WithLogin(telnet.LoginSpec{
			Username:       script.Login.Username,
			Password:       script.Login.Password,
			UsernamePrompt: script.Login.UsernamePrompt,
			PasswordPrompt: script.Login.PasswordPrompt,
			SuccessPattern: script.Login.SuccessPattern,
		})
	}

	for _, s := range script.Steps {
		step := telnet.Step{
			Command:    s.Command,
			Expect:     s.Expect,
			Timeout:    time.Duration(s.Timeout * float64(time.Second)),
			Delay:      time.Duration(s.Delay * float64(time.Second)),
			StopOnFail: s.StopOnFail,
		}
		if s.Condition != nil {
			step.Condition = &telnet.Condition{
				Kind:    telnet.ParseConditionKind(s.Condition.Type),
				Pattern: s.Condition.Pattern,
			}
		}
		builder.AddStep(step)
	}

	results, err := builder.Run()
	if err != nil {
		fmt.Printf("Script run failed: %v\n", err)
		os.Exit(1)
	}

	for i, result := range results {
		fmt.Printf("Command %d result:\n%s\n%s\n", i+1, result, "==================================================")
	}
}

func loadScript(path string) (*scriptFile, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	var script scriptFile
	if err := v.Unmarshal(&script); err != nil {
		return nil, fmt.Errorf("failed to unmarshal script file: %w", err)
	}
	return &script, nil
}
