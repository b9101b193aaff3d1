package agent

import "fmt"

// outputTag wraps every structured model answer.
const outputTag = "jsonOutput"

const generateMindmapTemplate = `You are a math tutoring assistant. A student is working on the problem below
and has written a partial solution. Build a mindmap of the student's reasoning so far: one node
per distinct idea, step or intermediate result, edges for logical dependencies.

Problem:
%s

Student solution so far:
%s

Respond with exactly one JSON object of the shape
{"problem_mindmap": {"nodes": [{"node_id": "N1", "node_content": "...", "node_type": "..."}], "edges": [{"edge_id": "E1", "source": "N1", "target": "N2", "edge_content": "..."}]}}
wrapped in <jsonOutput>
...
</jsonOutput> tags. Node content is markdown. Every edge must reference existing node ids.`

const updateMindmapTemplate = `You are a math tutoring assistant maintaining a mindmap of a student's reasoning.
Revise the existing mindmap to reflect the student's latest solution text. Return the full
revised graph, not a diff; keep node ids stable where the underlying idea is unchanged.

Problem:
%s

Existing mindmap (JSON):
%s

Student's latest solution text:
%s

Respond with exactly one JSON object of the shape
{"problem_mindmap": {"nodes": [...], "edges": [...]}}
wrapped in <jsonOutput>
...
</jsonOutput> tags. Every edge must reference existing node ids.`

const generateSuggestionTemplate = `You are a math tutoring assistant performing a gap analysis. Compare the
student's mindmap against the reference mindmap for this problem and identify promising
directions the student has not explored yet.

Problem:
%s

Student solution so far:
%s

Student mindmap (JSON):
%s

Reference mindmap (JSON):
%s

Respond with exactly one JSON object of the shape
{"suggestion": {"nodes": [...], "edges": [...]}, "suggestion_summary": "..."}
wrapped in <jsonOutput>
...
</jsonOutput> tags. "suggestion" contains only recommended directions missing from the
student's map; "suggestion_summary" is a short markdown summary addressed to the student.`

func generateMindmapPrompt(problemContent, userSolution string) string {
	return fmt.Sprintf(generateMindmapTemplate, problemContent, userSolution)
}

func updateMindmapPrompt(problemContent, existingMapJSON, userInput string) string {
	return fmt.Sprintf(updateMindmapTemplate, problemContent, existingMapJSON, userInput)
}

func generateSuggestionPrompt(problemContent, userSolution, userMapJSON, standardMapJSON string) string {
	return fmt.Sprintf(generateSuggestionTemplate, problemContent, userSolution, userMapJSON, standardMapJSON)
}
