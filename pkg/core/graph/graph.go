package graph

import "sort"

// Graph 节点/边集合（对外导出）
// 由调用方（编辑器）构造并持有；引擎只读不改。
// 构造时不做合法性检查（重复ID、悬空边、自环等由Validator统一报告）
type Graph struct {
	nodes     []Node
	edges     []Edge
	byID      map[string]int  // 节点ID -> nodes下标（重复ID保留首个）
	edgesFrom map[string][]Edge
	edgesTo   map[string][]Edge
}

// New 创建Graph实例（对外导出）
// 保留节点和边的输入顺序，便于错误输出可复现
func New(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		nodes:     append([]Node(nil), nodes...),
		edges:     append([]Edge(nil), edges...),
		byID:      make(map[string]int, len(nodes)),
		edgesFrom: make(map[string][]Edge),
		edgesTo:   make(map[string][]Edge),
	}

	for i, n := range g.nodes {
		if _, exists := g.byID[n.ID]; !exists {
			g.byID[n.ID] = i
		}
	}

	for _, e := range g.edges {
		g.edgesFrom[e.Source] = append(g.edgesFrom[e.Source], e)
		g.edgesTo[e.Target] = append(g.edgesTo[e.Target], e)
	}

	return g
}

// Nodes 获取所有节点（含重复ID的节点，按输入顺序）
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Edges 获取所有边（按输入顺序）
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NodeByID 按ID查找节点
// 重复ID时返回首个出现的节点
func (g *Graph) NodeByID(id string) (Node, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// EdgesFrom 获取以指定节点为源的所有出边
func (g *Graph) EdgesFrom(id string) []Edge {
	return g.edgesFrom[id]
}

// EdgesTo 获取以指定节点为目标的所有入边
func (g *Graph) EdgesTo(id string) []Edge {
	return g.edgesTo[id]
}

// NodeIDs 获取去重后的节点ID列表（升序）
// 升序保证循环检测与拓扑排序的遍历顺序确定
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.byID))
	for id := range g.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DuplicateIDs 获取重复出现的节点ID列表（升序）
func (g *Graph) DuplicateIDs() []string {
	seen := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		seen[n.ID]++
	}

	dups := make([]string, 0)
	for id, count := range seen {
		if count > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}

// Successors 构建邻接表（节点ID -> 下游节点ID列表）
// 只包含两端都存在且非自环的边；供循环检测和拓扑排序使用
func (g *Graph) Successors() map[string][]string {
	succ := make(map[string][]string, len(g.byID))
	for id := range g.byID {
		succ[id] = nil
	}

	for _, e := range g.edges {
		if e.Source == e.Target {
			continue
		}
		if _, ok := g.byID[e.Source]; !ok {
			continue
		}
		if _, ok := g.byID[e.Target]; !ok {
			continue
		}
		succ[e.Source] = append(succ[e.Source], e.Target)
	}

	return succ
}
