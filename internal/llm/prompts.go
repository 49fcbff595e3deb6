package llm

// Prompt templates for the research pipeline. All structured prompts ask
// for bare JSON so the response survives StripFences plus one unmarshal.

const BroadScanPrompt = `You are a horizon-scanning analyst performing a STEEP analysis
(Social, Technological, Economic, Environmental, Political) for a forecasting question.

Question:
%s
%s
Brainstorm 30-50 candidate drivers that could influence the outcome of this
question. Prefer drivers that are specific, actionable, and span multiple
STEEP categories.

For each driver provide:
- "name": a short name
- "category": one of social, technological, economic, environmental, political
- "mechanism": how it influences the outcome
- "directionality": accelerating, decelerating, stable, or unclear
- "relevance": a score from 0.0 to 1.0

Respond ONLY with a JSON array of all 30-50 objects. No markdown, no explanation.`

const FilterPrompt = `You are a forecasting analyst filtering candidate drivers for a
forecasting question.

Question:
%s

Candidate drivers (0-indexed):
%s

Select the indices of the top %d most relevant drivers, in descending order
of relevance.

Respond ONLY with a JSON array of integer indices, e.g. [3,0,7]. No markdown.`

const DominancePrompt = `You are a forecasting analyst. Consider this driver for a
forecasting question and describe the scenario in which it becomes the
dominant force shaping the outcome.

Question:
%s

Driver: %s [%s]
Mechanism: %s

Respond ONLY with a JSON object:
{"scenario_description":"...","timescale_plausibility":"high|medium|low|very_low","system_effects":["...","..."]}`

const PreconditionsPrompt = `You are a forecasting analyst. For the driver below, list the 3-6
concrete, observable preconditions that would need to hold for it to become
the dominant force on the question outcome. Each precondition must be
specific enough to search for evidence of it.

Question:
%s

Driver: %s
Dominance scenario: %s

Respond ONLY with a JSON array of objects:
[{"description":"...","rationale":"why this must hold"}]`

const PreconditionStatusPrompt = `You are a forecasting analyst validating a precondition for the
driver "%s".

Preconditions under assessment (0-indexed):
%s

Assess precondition %d using the search results below. Classify its current
status as one of: emerging, stable, absent, contrary.

Search results:
%s

Respond ONLY with a JSON object:
{"index":%d,"status":"emerging|stable|absent|contrary","evidence_summary":"...","citations":["url or source", "..."]}`

const SignalsPrompt = `You are a forecasting analyst collecting evidence signals for the
driver "%s" (%s) on this question:

%s

Search results:
%s

Extract the distinct pieces of evidence that support or qualify this driver.
For each, provide a one-sentence summary, a citation (source name or URL),
and optionally how recent it is.

Respond ONLY with a JSON array:
[{"summary":"...","citation":"...","recency":"..."}]
If the search results contain no usable evidence, respond with [].`

const ScoreDriversPrompt = `You are a forecasting analyst. For each driver below, assess:

1. "direction_of_pressure": how the driver pushes the question outcome
   (e.g. "pushes toward Yes", "increases the value")
2. "strength": weak, moderate, or strong
3. "uncertainty": a brief note on how certain the assessment is

Question:
%s

Drivers (0-indexed):
%s

Respond ONLY with a JSON array of objects with keys
"index", "direction_of_pressure", "strength", "uncertainty", one per driver.`

const SelectDriversPrompt = `You are a forecasting analyst selecting the final driver set for a
forecasting question.

Question:
%s

Drivers (0-indexed):
%s

Select the %d most important and diverse drivers. Prefer a mix of STEEP
categories and both directions of pressure.

Respond ONLY with a JSON array of integer indices, most important first.`

const BaseRatePrompt = `You are a superforecaster performing base rate analysis for a
forecasting question. Identify %d relevant reference classes and estimate
their historical rates.

For each reference class:
1. Define a clear numerator and denominator
2. Estimate the count for each based on your knowledge
3. Calculate the historical rate as a decimal between 0.0 and 1.0
   (e.g. 40%% should be 0.4, NOT 40.0)
4. Explain why this reference class is relevant

Choose reference classes that are as specific as possible, span different
levels of abstraction, and have reasonably well-known historical data.

Question:
%s

Respond ONLY with a JSON array of objects with keys "reference_class",
"numerator_description", "denominator_description", "numerator",
"denominator", "historical_rate", "time_period", "relevance_reasoning".`

const KeyFactorsPrompt = `You are a forecasting analyst. Brainstorm up to %d key factors that
bear on this question, then score each from 0.0 to 1.0 by how much it should
move a forecast.

Question:
%s

Respond ONLY with a JSON array of objects:
[{"text":"...","score":0.0,"citation":"optional source"}]`
