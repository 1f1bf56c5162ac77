// Package coordination wires the agent substrate together for a single
// process: the message bus, the request correlator, the coordinator agent
// that delegates caller requests, and the debate engine. The Hub owns
// component lifecycle; callers interact through Ask and Debate.
package coordination
