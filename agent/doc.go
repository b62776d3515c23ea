// Package agent builds prompt-driven transform nodes. A prompt agent
// renders a template over its declared input keys into the final prompt,
// runs an embedded Generation node, and parses the response into the
// parsed_response scratch key.
//
//	chat, _ := agent.NewChat()
//	p := transform.NewPipeline(transform.WithGenerator(gen), transform.WithTransforms(chat))
//
// An agent given listeners (and a generator) can run on its own, without a
// pipeline. Inside a pipeline the pipeline's resource and listeners apply.
package agent
