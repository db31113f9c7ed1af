package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/Skillgate/config"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// ReportInput bundles everything the final report prompt needs.
type ReportInput struct {
	TestTitle string
	Skills    []string

	MCQScore   float64
	MCQCorrect int
	MCQTotal   int
	MCQPassed  bool

	CodingScore  float64
	CodingSolved int
	CodingTotal  int
	CodingPassed bool

	SQLScore  float64
	SQLSolved int
	SQLTotal  int
	SQLPassed bool

	InterviewScore    float64
	InterviewAnswered int
	InterviewTotal    int
	InterviewPassed   bool
	InterviewTurns    []model.InterviewTurn

	TotalViolations int
}

// ContentGenerator produces stage content and evaluations. Implementations
// may fail; callers are expected to fall back to canned content so stage
// activation never blocks on the model being available.
type ContentGenerator interface {
	MCQQuestions(ctx context.Context, skills []string, count int) ([]model.MCQQuestion, error)
	CodingProblems(ctx context.Context, skills []string, count int, difficulty string) ([]model.CodingProblem, error)
	SQLProblems(ctx context.Context, skills []string, count int, tables sandboxTables) ([]model.SQLProblem, error)
	InterviewQuestion(ctx context.Context, skills []string, previous []model.InterviewTurn, questionNumber, totalQuestions int) (model.InterviewTurn, error)
	EvaluateInterviewAnswer(ctx context.Context, turn model.InterviewTurn, answer string) (score float64, feedback string, err error)
	EvaluateSQLQuery(ctx context.Context, problem model.SQLProblem, query string) (model.SQLEvaluation, error)
	FinalReport(ctx context.Context, input ReportInput) (*model.ReportDocument, error)
}

type geminiGenerator struct {
	client *genai.GenerativeModel
	cfg    *config.Config
}

func NewContentGenerator(cfg *config.Config) (ContentGenerator, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. ContentGenerator will rely on fallback content.")
		return &geminiGenerator{cfg: cfg, client: nil}, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-flash")
	return &geminiGenerator{client: model, cfg: cfg}, nil
}

// Topic pools salt the prompts so repeated generations diverge.
var (
	conceptPool = []string{
		"design patterns", "concurrency", "memory management", "error handling",
		"testing", "security", "performance", "architecture", "debugging",
		"deployment", "networking", "APIs", "databases", "caching", "logging",
	}
	approachPool = []string{
		"scenario-based", "code-output prediction", "bug-finding",
		"best-practice identification", "tradeoff analysis",
		"real-world problem solving", "optimization", "architecture decision",
	}
	themePool = []string{
		"e-commerce system", "social media app", "banking system",
		"healthcare platform", "logistics system", "real-time chat",
		"streaming service", "IoT dashboard", "machine learning pipeline",
		"CI/CD workflow",
	}
	sqlTopicPool = []string{
		"joins", "subqueries", "window functions", "aggregation",
		"string functions", "date functions", "CASE statements", "CTEs",
		"self-joins", "UNION", "HAVING", "nested queries",
	}
)

func pickRandom(pool []string, n int) []string {
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func promptSeed() int {
	return rand.Intn(1000000)
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}
	resp, err := g.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text += string(txt)
		}
	}
	if text == "" {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return text, nil
}

func (g *geminiGenerator) MCQQuestions(ctx context.Context, skills []string, count int) ([]model.MCQQuestion, error) {
	skillsStr := strings.Join(skills, ", ")
	var b strings.Builder
	b.WriteString("You are an expert technical interviewer. Generate multiple choice questions for a technical assessment.\n")
	b.WriteString("Each question must be relevant to the candidate's skills and test practical knowledge.\n")
	b.WriteString("Return ONLY a valid JSON array, no other text.\n")
	b.WriteString("Each question object must have these exact fields:\n")
	b.WriteString("- \"id\": number (1, 2, 3...)\n")
	b.WriteString("- \"question\": string\n")
	b.WriteString("- \"skill\": string (which skill this tests)\n")
	b.WriteString("- \"difficulty\": string (\"easy\", \"medium\", or \"hard\")\n")
	b.WriteString("- \"options\": array of exactly 4 strings\n")
	b.WriteString("- \"correct_answer\": number (0-3 index of correct option)\n")
	b.WriteString("- \"explanation\": string (brief explanation of correct answer)\n\n")
	b.WriteString(fmt.Sprintf("[Seed: %d] Generate %d UNIQUE technical MCQ questions based on these skills: %s\n\n", promptSeed(), count, skillsStr))
	b.WriteString("IMPORTANT: Generate completely NEW and UNIQUE questions every time. DO NOT use common or frequently-asked questions.\n")
	b.WriteString(fmt.Sprintf("Focus on these specific topics for THIS session: %s\n", strings.Join(pickRandom(conceptPool, 4), ", ")))
	b.WriteString(fmt.Sprintf("Use these question styles: %s\n\n", strings.Join(pickRandom(approachPool, 3), ", ")))
	b.WriteString("Distribution: 30% easy (fundamentals), 50% medium (practical application), 20% hard (advanced concepts).\n")
	b.WriteString("Make questions practical and real-world oriented. Cover different skills proportionally.\n")
	b.WriteString("Return ONLY a valid JSON array.")

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}
	var questions []model.MCQQuestion
	if err := decodeLLMJSON(raw, &questions); err != nil {
		return nil, err
	}

	valid := make([]model.MCQQuestion, 0, len(questions))
	for _, q := range questions {
		if q.Question == "" || len(q.Options) < 4 || q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
			continue
		}
		q.ID = len(valid) + 1
		q.Options = q.Options[:4]
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no usable questions in response")
	}
	return valid, nil
}

func (g *geminiGenerator) CodingProblems(ctx context.Context, skills []string, count int, difficulty string) ([]model.CodingProblem, error) {
	skillsStr := strings.Join(skills, ", ")

	var difficultyInstruction string
	switch difficulty {
	case "easy", "medium", "hard":
		difficultyInstruction = fmt.Sprintf("All %d problems should be %q difficulty.", count, difficulty)
	default:
		difficultyInstruction = "Distribute difficulty across easy, medium, and hard."
	}

	var b strings.Builder
	b.WriteString("You are an expert coding challenge designer. Generate coding problems for a technical assessment.\n")
	b.WriteString(fmt.Sprintf("Return ONLY a valid JSON array with EXACTLY %d problems. Each problem object must have:\n", count))
	b.WriteString("- \"id\": number\n- \"title\": string\n- \"description\": string (clear problem statement with examples)\n")
	b.WriteString("- \"difficulty\": \"easy\" | \"medium\" | \"hard\"\n- \"skills_tested\": array of strings\n")
	b.WriteString("- \"input_format\": string\n- \"output_format\": string\n- \"sample_input\": string\n- \"sample_output\": string\n")
	b.WriteString("- \"test_cases\": array of objects with \"input\" and \"expected_output\" strings\n")
	b.WriteString("- \"starter_code\": object with keys \"python\" and \"javascript\". The code must include the solution function definition, driver code that reads from STDIN, parses the input according to \"input_format\", calls the solution function and prints the result to STDOUT, and comments indicating where the user should write their code.\n")
	b.WriteString("- \"time_limit_seconds\": number\n- \"hints\": array of strings (2-3 hints)\n\n")
	b.WriteString(fmt.Sprintf("[Seed: %d] Generate EXACTLY %d UNIQUE coding problem(s) that test these skills: %s\n\n", promptSeed(), count, skillsStr))
	b.WriteString(difficultyInstruction)
	b.WriteString("\n\nIMPORTANT: Generate completely DIFFERENT problems every time. Avoid common problems like Two Sum, FizzBuzz, Palindrome, Fibonacci, Reverse String.\n")
	b.WriteString(fmt.Sprintf("Think of creative, unique problem scenarios from: %s.\n\n", strings.Join(pickRandom(themePool, 3), ", ")))
	b.WriteString("Each problem should have at least 3 test cases.\n")
	b.WriteString("Make sure the \"starter_code\" for each language is correct and runnable. It must handle the input parsing exactly as described in \"input_format\".\n")
	b.WriteString(fmt.Sprintf("Return ONLY a valid JSON array with exactly %d problem(s).", count))

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}
	var problems []model.CodingProblem
	if err := decodeLLMJSON(raw, &problems); err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return nil, fmt.Errorf("no problems in response")
	}
	if len(problems) > count {
		problems = problems[:count]
	}
	for i := range problems {
		if problems[i].ID == 0 {
			problems[i].ID = i + 1
		}
		if problems[i].TimeLimitSeconds <= 0 {
			problems[i].TimeLimitSeconds = 5
		}
	}
	return problems, nil
}

func (g *geminiGenerator) SQLProblems(ctx context.Context, skills []string, count int, tables sandboxTables) ([]model.SQLProblem, error) {
	var b strings.Builder
	b.WriteString("You are an expert SQL instructor. Generate SQL problems that can be tested against a sandbox database.\n\n")
	b.WriteString("The sandbox database has these tables:\n")
	b.WriteString(fmt.Sprintf("- %s (id INT, name TEXT, department TEXT, salary DECIMAL, hire_date DATE, manager_id INT)\n", tables.Employees))
	b.WriteString(fmt.Sprintf("- %s (id INT, name TEXT, budget DECIMAL, location TEXT)\n", tables.Departments))
	b.WriteString(fmt.Sprintf("- %s (id INT, name TEXT, department_id INT, start_date DATE, end_date DATE, status TEXT)\n", tables.Projects))
	b.WriteString(fmt.Sprintf("- %s (id INT, customer_name TEXT, product TEXT, quantity INT, price DECIMAL, order_date DATE)\n\n", tables.Orders))
	b.WriteString(fmt.Sprintf("IMPORTANT: Use EXACTLY these table names in your queries and descriptions: %s, %s, %s, %s\n\n", tables.Employees, tables.Departments, tables.Projects, tables.Orders))
	b.WriteString("Return ONLY a valid JSON array. Each problem must have:\n")
	b.WriteString("- \"id\": number\n- \"title\": string\n- \"description\": string (clear problem statement, include the exact table names students should use)\n")
	b.WriteString("- \"difficulty\": \"easy\" | \"medium\" | \"hard\"\n- \"hint\": string\n")
	b.WriteString("- \"expected_columns\": array of strings (column names in result)\n")
	b.WriteString("- \"reference_query\": string (the correct SQL query using the exact table names above)\n\n")
	b.WriteString(fmt.Sprintf("[Seed: %d] Generate %d UNIQUE SQL problems with increasing difficulty.\n\n", promptSeed(), count))
	b.WriteString("IMPORTANT: Generate completely DIFFERENT problems every time. Avoid repeating common problems like \"find employees above average salary\" or \"count by department\".\n")
	b.WriteString(fmt.Sprintf("Think of creative query scenarios involving: %s.\n\n", strings.Join(pickRandom(sqlTopicPool, 4), ", ")))
	b.WriteString("Return ONLY a valid JSON array.")

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}
	var problems []model.SQLProblem
	if err := decodeLLMJSON(raw, &problems); err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return nil, fmt.Errorf("no problems in response")
	}
	if len(problems) > count {
		problems = problems[:count]
	}
	return problems, nil
}

func (g *geminiGenerator) InterviewQuestion(ctx context.Context, skills []string, previous []model.InterviewTurn, questionNumber, totalQuestions int) (model.InterviewTurn, error) {
	var prevContext strings.Builder
	recent := previous
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	for i, t := range recent {
		answer := "No answer"
		if t.Answer != nil {
			answer = *t.Answer
		}
		prevContext.WriteString(fmt.Sprintf("Q%d: %s\nA%d: %s\nScore: %.1f/10\n", i+1, t.Question, i+1, answer, t.Score))
	}
	if prevContext.Len() == 0 {
		prevContext.WriteString("This is the first question.")
	}

	var b strings.Builder
	b.WriteString("You are a senior technical interviewer conducting an AI-powered interview.\n")
	b.WriteString("Ask one focused, insightful question at a time. Questions start with fundamental concepts and progressively get harder, are based on the candidate's actual skills, and follow up on previous answers.\n\n")
	b.WriteString("Return a JSON object with:\n")
	b.WriteString("- \"question\": string\n- \"category\": string (skill category being tested)\n")
	b.WriteString("- \"difficulty\": \"easy\" | \"medium\" | \"hard\"\n")
	b.WriteString("- \"key_points\": array of strings (key points a good answer should cover)\n\n")
	b.WriteString(fmt.Sprintf("[Seed: %d] Skills to test: %s\n\n", promptSeed(), strings.Join(skills, ", ")))
	b.WriteString(fmt.Sprintf("Question %d of %d.\n\nPrevious Q&A Context:\n%s\n\n", questionNumber, totalQuestions, prevContext.String()))
	b.WriteString("Generate the next interview question. Make it progressively more challenging.\n")
	b.WriteString("For early questions (1-3), ask foundational questions. For middle questions (4-7), ask practical and project-based questions. For later questions (8+), ask complex scenario-based questions.\n\n")
	b.WriteString("IMPORTANT: Be creative. DO NOT ask generic questions like \"What is X?\" or \"Explain Y\". Use scenario-based, problem-solving, or design questions.\n")
	b.WriteString(fmt.Sprintf("Focus on: %s\n\n", strings.Join(pickRandom(conceptPool, 2), ", ")))
	b.WriteString("Return ONLY valid JSON.")

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return model.InterviewTurn{}, err
	}
	var turn model.InterviewTurn
	if err := decodeLLMJSON(raw, &turn); err != nil {
		return model.InterviewTurn{}, err
	}
	if turn.Question == "" {
		return model.InterviewTurn{}, fmt.Errorf("no question in response")
	}
	return turn, nil
}

func (g *geminiGenerator) EvaluateInterviewAnswer(ctx context.Context, turn model.InterviewTurn, answer string) (float64, string, error) {
	var b strings.Builder
	b.WriteString("You are a technical interview evaluator. Evaluate the candidate's answer objectively.\n")
	b.WriteString("Return a JSON object with:\n- \"score\": number (0-10)\n- \"feedback\": string (constructive feedback)\n\n")
	b.WriteString(fmt.Sprintf("Question: %s\nSkill Category: %s\n\n", turn.Question, turn.Category))
	b.WriteString(fmt.Sprintf("Expected Key Points: %s\n\n", strings.Join(turn.KeyPoints, "; ")))
	b.WriteString(fmt.Sprintf("Candidate's Answer: %s\n\n", answer))
	b.WriteString("Evaluate this answer. Be fair but thorough. If the answer is empty or clearly irrelevant, give a low score.\n")
	b.WriteString("Return ONLY valid JSON.")

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return 0, "", err
	}
	var verdict struct {
		Score    float64 `json:"score"`
		Feedback string  `json:"feedback"`
	}
	if err := decodeLLMJSON(raw, &verdict); err != nil {
		return 0, "", err
	}
	if verdict.Score < 0 {
		verdict.Score = 0
	}
	if verdict.Score > 10 {
		verdict.Score = 10
	}
	return verdict.Score, verdict.Feedback, nil
}

func (g *geminiGenerator) EvaluateSQLQuery(ctx context.Context, problem model.SQLProblem, query string) (model.SQLEvaluation, error) {
	var b strings.Builder
	b.WriteString("You are a pedagogical SQL evaluator and mentor. Your goal is to help a student identify errors in their SQL query WITHOUT revealing the reference solution or the correct query.\n\n")
	b.WriteString("CRITICAL RULES:\n")
	b.WriteString("1. NEVER include the reference query or the correct SQL syntax in your feedback.\n")
	b.WriteString("2. NEVER explicitly say \"use HAVING...\" or \"use JOIN...\". Instead, say \"Check your filtering conditions for groups\" or \"Ensure you are correctly combining tables\".\n")
	b.WriteString("3. Describe the logical mismatch.\n")
	b.WriteString("4. If the student made a simple typo, point to the area rather than giving the fix.\n")
	b.WriteString("5. Always focus on why the result set would be different.\n\n")
	b.WriteString("Return ONLY a valid JSON object with:\n- \"passed\": boolean (functionally equivalent to reference)\n- \"feedback\": string (constructive, mentor-like feedback)\n- \"score\": number (0-100 based on how close they are)\n\n")
	b.WriteString(fmt.Sprintf("Problem: %s\nDescription: %s\n", problem.Title, problem.Description))
	b.WriteString(fmt.Sprintf("Expected columns: %s\n", strings.Join(problem.ExpectedColumns, ", ")))
	b.WriteString(fmt.Sprintf("Reference query: %s\n\n", problem.ReferenceQuery))
	b.WriteString(fmt.Sprintf("Student's query: %s\n\n", query))
	b.WriteString("Evaluate if the student's query is correct. Return ONLY valid JSON.")

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return model.SQLEvaluation{}, err
	}
	var verdict model.SQLEvaluation
	if err := decodeLLMJSON(raw, &verdict); err != nil {
		return model.SQLEvaluation{}, err
	}
	return verdict, nil
}

func (g *geminiGenerator) FinalReport(ctx context.Context, input ReportInput) (*model.ReportDocument, error) {
	var highlights strings.Builder
	for _, t := range input.InterviewTurns {
		if t.Answer == nil {
			continue
		}
		highlights.WriteString(fmt.Sprintf("Q: %s (score %.1f/10)\n", t.Question, t.Score))
	}

	var b strings.Builder
	b.WriteString("You are an expert career coach and technical interviewer preparing a detailed placement report for a student.\n")
	b.WriteString("The goal is to help the student improve for job placements. The report must be highly detailed, constructive, and actionable.\n\n")
	b.WriteString("Return a JSON object with:\n")
	b.WriteString("- \"overall_rating\": string (\"Excellent\" | \"Good\" | \"Average\" | \"Below Average\" | \"Not Recommended\")\n")
	b.WriteString("- \"summary\": string (detailed executive summary of performance)\n")
	b.WriteString("- \"strengths\": array of strings\n- \"weaknesses\": array of strings\n")
	b.WriteString("- \"section_feedback\": object with keys \"mcq\", \"coding\", \"sql\", \"interview\", each a detailed string paragraph\n")
	b.WriteString("- \"performance_metrics\": object with keys \"accuracy\", \"speed\", \"completeness\", \"code_quality\" and values 0-100\n")
	b.WriteString("- \"concept_mastery\": object with concept names as keys and values 0-100\n")
	b.WriteString("- \"skill_wise_scores\": object with skill names as keys and scores (0-100) as values\n")
	b.WriteString("- \"roadmap\": array of objects with \"week\" (1-4), \"focus_area\", and \"action_items\" (array of strings)\n")
	b.WriteString("- \"mcq_question_analysis\": array of objects with \"question_summary\", \"correct\", \"skill\", \"feedback\"\n")
	b.WriteString("- \"problem_analysis\": array of objects with \"problem_title\", \"solved\", \"feedback\", \"improvement_tip\"\n")
	b.WriteString("- \"interview_feedback\": array of objects with \"question_summary\", \"score\" (0-10), \"feedback\", \"improvement_tip\"\n\n")
	b.WriteString(fmt.Sprintf("Test: %s\nSkills Tested: %s\n\n", input.TestTitle, strings.Join(input.Skills, ", ")))
	b.WriteString(fmt.Sprintf("MCQ Results:\n- Score: %.1f%%\n- Correct: %d/%d\n- Passed: %t\n\n", input.MCQScore, input.MCQCorrect, input.MCQTotal, input.MCQPassed))
	b.WriteString(fmt.Sprintf("Coding Results:\n- Score: %.1f%%\n- Problems Solved: %d/%d\n- Passed: %t\n\n", input.CodingScore, input.CodingSolved, input.CodingTotal, input.CodingPassed))
	b.WriteString(fmt.Sprintf("SQL Results:\n- Score: %.1f%%\n- Problems Solved: %d/%d\n- Passed: %t\n\n", input.SQLScore, input.SQLSolved, input.SQLTotal, input.SQLPassed))
	b.WriteString(fmt.Sprintf("AI Interview Results:\n- Average Score: %.1f/10\n- Questions Answered: %d/%d\n- Passed: %t\n", input.InterviewScore, input.InterviewAnswered, input.InterviewTotal, input.InterviewPassed))
	b.WriteString(fmt.Sprintf("- Key Q&A:\n%s\n", highlights.String()))
	b.WriteString(fmt.Sprintf("\nProctoring:\n- Total Violations: %d\n\n", input.TotalViolations))
	b.WriteString("Generate a comprehensive, detailed report. Return ONLY valid JSON.")

	raw, err := g.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}
	var report model.ReportDocument
	if err := decodeLLMJSON(raw, &report); err != nil {
		return nil, err
	}
	if report.OverallRating == "" {
		return nil, fmt.Errorf("no overall rating in response")
	}
	report.TotalViolations = input.TotalViolations
	return &report, nil
}
