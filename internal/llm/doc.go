// Package llm provides the language-model merchant categorizer and the
// simulation insight refiner. It supports OpenAI and Anthropic, with a rule
// stage in front of the model, retry logic, rate limiting, and response caching.
package llm
