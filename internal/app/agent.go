package app

import "renderscope/internal/agent"

// AgentStatus represents current information about the agent process.
type AgentStatus struct {
	Running bool
	Addr    string
}

// Status reports whether the agent answers on the configured address.
func (a *App) Status() (AgentStatus, error) {
	if !agentReachable(a.addr) {
		return AgentStatus{Running: false, Addr: a.addr}, nil
	}
	return AgentStatus{Running: true, Addr: a.addr}, nil
}

// AgentHandle holds a running agent instance.
type AgentHandle struct {
	ag *agent.Agent
}

// Addr returns the address the held agent listens on.
func (h *AgentHandle) Addr() string {
	if h == nil || h.ag == nil {
		return ""
	}
	return h.ag.Addr()
}

// Close stops the running agent instance.
func (h *AgentHandle) Close() error {
	if h == nil || h.ag == nil {
		return nil
	}
	return h.ag.Close()
}

// StartAgent starts the agent and returns a handle for closing it.
func (a *App) StartAgent() (*AgentHandle, error) {
	ag, err := agent.Start(a.cfgPath)
	if err != nil {
		return nil, err
	}
	return &AgentHandle{ag: ag}, nil
}
