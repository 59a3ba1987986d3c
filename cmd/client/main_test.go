package main

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"testing"
)

// fakeServer отвечает на каждую строку, кроме BYE, и запоминает полученные строки
func fakeServer(t *testing.T, conn net.Conn, got chan<- []string) {
	t.Helper()
	defer conn.Close()

	var lines []string
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimSuffix(line, "\n")
		lines = append(lines, line)
		if line == "BYE" {
			break
		}
		conn.Write([]byte("OK;0.000;" + strings.ToUpper(line) + "\n"))
	}
	got <- lines
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantSent []string
		wantOut  string
	}{
		{
			name:     "запросы и BYE",
			input:    "STAT_REQS\n\n  max_grid  \nBYE\nSTAT_REQS\n",
			wantSent: []string{"STAT_REQS", "max_grid", "BYE"},
			wantOut:  "OK;0.000;STAT_REQS\nOK;0.000;MAX_GRID\n",
		},
		{
			name:     "конец ввода без BYE",
			input:    "STAT_MAX_TIME",
			wantSent: []string{"STAT_MAX_TIME"},
			wantOut:  "OK;0.000;STAT_MAX_TIME\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			got := make(chan []string, 1)
			go fakeServer(t, server, got)

			var out bytes.Buffer
			if err := run(client, strings.NewReader(tt.input), &out); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			client.Close()

			sent := <-got
			if strings.Join(sent, "|") != strings.Join(tt.wantSent, "|") {
				t.Errorf("sent = %q, want %q", sent, tt.wantSent)
			}
			if out.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestRootCommandRejectsArgs(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"unexpected"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute() error = nil, want error for positional argument")
	}
}
