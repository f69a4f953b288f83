package extractor

const systemPrompt = `You are an expert IT helpdesk conversation analyst specializing in:
- Detecting bot failures
- Accurately assessing user sentiment and satisfaction
- Identifying knowledge base gaps and resolution outcomes

Use the full 1-5 scoring range. Be conservative - high scores must be earned.

Extract all relevant fields according to the schema provided.`

const userPromptTemplate = `Analyze this IT helpdesk conversation and extract structured information:

%s

**IMPORTANT NOTES:**
- Analyze the ENTIRE conversation to determine the outcome
- Pay attention to the LAST few messages to understand how it ended
- If the bot asked a question but never responded after the user's answer, that's a bot failure
- User saying "hello" or "are you there?" after a bot question = likely bot went silent
- Be conservative with satisfaction/quality scores - they must be earned
- Separate IMS tickets (always created for IT calls) from INC tickets (escalations only)
- Use not_applicable for incident_category unless request_type is incident, and for service_request_type unless request_type is service_request`
